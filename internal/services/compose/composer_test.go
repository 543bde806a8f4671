package compose

import (
	"strings"
	"testing"

	"github.com/ivankudzin/tgapp/postrelay/internal/domain/enums"
	"github.com/ivankudzin/tgapp/postrelay/internal/domain/model"
)

func testRecord() model.WorkingRecord {
	return model.WorkingRecord{
		Kind:      enums.ContentKindText,
		Body:      "Продам <b>велосипед</b>",
		Sender:    model.SenderDescriptor{ChatID: "42", VerboseName: "Ivan", IsUser: true},
		Signature: "Админ Олег",
		Tags:      []string{"#Sale", "#Sport"},
	}
}

func TestComposeOrdering(t *testing.T) {
	got := Compose(testRecord(), Options{Attribution: true, Signature: true})
	want := "#Sale #Sport\n\nПродам <b>велосипед</b>" +
		"\n\n===== META =====\nFrom\n<a href='tg://user?id=42'>Ivan</a>" +
		"\n\n_______________\nАдмин Олег"
	if got != want {
		t.Fatalf("unexpected composition:\n%q\nwant\n%q", got, want)
	}
}

func TestComposeWithoutTagsOmitsHeader(t *testing.T) {
	rec := testRecord()
	rec.Tags = nil
	got := Compose(rec, Publication)
	if !strings.HasPrefix(got, "Продам") {
		t.Fatalf("expected body first when no tags, got %q", got)
	}
}

func TestComposeStripsEmbeddedAttribution(t *testing.T) {
	rec := testRecord()
	rec.Body = rec.Body + Attribution(rec.Sender)

	got := Compose(rec, Publication)
	if strings.Contains(got, MetaMarker) {
		t.Fatalf("attribution marker must be stripped, got %q", got)
	}
	if strings.Contains(got, "tg://user") {
		t.Fatalf("attribution link must be stripped, got %q", got)
	}

	review := Compose(rec, ReviewCopy)
	if strings.Count(review, MetaMarker) != 1 {
		t.Fatalf("review copy must carry exactly one attribution block, got %q", review)
	}
}

func TestComposeIsIdempotent(t *testing.T) {
	rec := testRecord()
	for _, opts := range []Options{ReviewCopy, Publication, {}, {Attribution: true, Signature: true}} {
		first := Compose(rec, opts)
		second := Compose(rec, opts)
		if first != second {
			t.Fatalf("compose not idempotent for %+v: %q vs %q", opts, first, second)
		}
	}
}

func TestComposeSkipsBlankSignature(t *testing.T) {
	rec := testRecord()
	rec.Signature = "   "
	if got := Compose(rec, Publication); strings.Contains(got, signatureDivider) {
		t.Fatalf("blank signature must not render a divider: %q", got)
	}
}

func TestBanners(t *testing.T) {
	if got := Accepted("x"); got != "x\n\n✅ОДОБРЕНО✅" {
		t.Fatalf("unexpected accepted banner: %q", got)
	}
	if got := Declined("x", "why"); got != "x\n\n❌ОТКЛОНЕНО❌\n<b>Причина:</b>\nwhy" {
		t.Fatalf("unexpected declined banner: %q", got)
	}
	if got := Manual("body"); !strings.HasSuffix(got, "\n\nbody") || !strings.HasPrefix(got, "ВНИМАНИЕ!") {
		t.Fatalf("unexpected manual text: %q", got)
	}
}

func TestFilterBody(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{name: "anchor kept as text", in: `Пишите <a href="https://t.me/x">сюда</a>`, want: "Пишите сюда"},
		{name: "plain link", in: "Сайт https://example.com/path?q=1 тут", want: "Сайт тут"},
		{name: "link closing a bold span", in: "Sale at <b>http://shop.example</b> now", want: "Sale at <b></b> now"},
		{name: "link inside italic span", in: "<i>see https://x.example/a?b=1</i>", want: "<i>see </i>"},
		{name: "hashtags", in: "#продам #Sale диван", want: "диван"},
		{name: "email before mention", in: "mail me@example.com now", want: "mail now"},
		{name: "mention", in: "ask @seller_1 today", want: "ask today"},
		{name: "line breaks", in: "a\n\n\n\nb", want: "a\n\nb"},
		{name: "escaped ampersand survives", in: "A &amp; B", want: "A &amp; B"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := FilterBody(tc.in)
			if got != tc.want {
				t.Fatalf("FilterBody(%q) = %q, want %q", tc.in, got, tc.want)
			}
			for _, tag := range []string{"b", "i"} {
				if open, closed := strings.Count(got, "<"+tag+">"), strings.Count(got, "</"+tag+">"); open != closed {
					t.Fatalf("FilterBody(%q) = %q: %d <%s> vs %d </%s>", tc.in, got, open, tag, closed, tag)
				}
			}
		})
	}
}
