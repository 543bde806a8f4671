package premoderation

import (
	"context"

	"go.uber.org/zap"

	"github.com/ivankudzin/tgapp/postrelay/internal/domain/enums"
	"github.com/ivankudzin/tgapp/postrelay/internal/domain/model"
	"github.com/ivankudzin/tgapp/postrelay/internal/metrics"
)

// failClosedReason is shown when a validator cannot decide.
const failClosedReason = "Не удалось проверить сообщение. Пожалуйста, попробуйте отправить его позже."

type Verdict struct {
	Status    enums.VerdictStatus
	Reason    string
	Validator string
}

func Valid() Verdict {
	return Verdict{Status: enums.VerdictValid}
}

type Validator interface {
	Name() string
	Validate(ctx context.Context, post model.InboundPost, sender model.SenderDescriptor) (Verdict, error)
}

type Chain struct {
	validators []Validator
	logger     *zap.Logger
}

type ChainOption func(*Chain)

func WithLogger(logger *zap.Logger) ChainOption {
	return func(c *Chain) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func NewChain(logger *zap.Logger, validators ...Validator) *Chain {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Chain{validators: validators, logger: logger}
}

// Evaluate runs validators in order and returns the first verdict that is
// not VALID. A validator error declines the post.
func (c *Chain) Evaluate(ctx context.Context, post model.InboundPost, sender model.SenderDescriptor) Verdict {
	for _, v := range c.validators {
		verdict, err := v.Validate(ctx, post, sender)
		if err != nil {
			c.logger.Error("premoderation validator failed",
				zap.String("validator", v.Name()),
				zap.String("sender_id", sender.ChatID),
				zap.Error(err),
			)
			verdict = Verdict{Status: enums.VerdictDeclined, Reason: failClosedReason}
		}
		if verdict.Status == "" {
			verdict.Status = enums.VerdictValid
		}
		if verdict.Status != enums.VerdictValid {
			verdict.Validator = v.Name()
			metrics.PremoderationVerdicts.WithLabelValues(string(verdict.Status), verdict.Validator).Inc()
			return verdict
		}
	}

	metrics.PremoderationVerdicts.WithLabelValues(string(enums.VerdictValid), "").Inc()
	return Valid()
}
