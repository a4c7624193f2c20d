package actorutil

import (
	"github.com/berfenger/chargelimit2mqtt/internal/core/domain"

	"github.com/asynkron/protoactor-go/actor"
)

type forRequest struct {
	req domain.ActorRequest
}

type ExtendedRequest interface {
	Respond(ctx actor.Context, resp domain.ActorResponse)
	ReplyTo(ctx actor.Context) *actor.PID
}

// ForRequest resolves who should get the answer of r: the explicit ReplyToRef if set, the sender otherwise.
func ForRequest(r domain.ActorRequest) ExtendedRequest {
	return forRequest{req: r}
}

func (r forRequest) Respond(ctx actor.Context, resp domain.ActorResponse) {
	replyTo := r.ReplyTo(ctx)
	if replyTo == nil {
		return
	}
	ctx.Send(replyTo, resp)
}

func (r forRequest) ReplyTo(ctx actor.Context) *actor.PID {
	if r.req.ReplyTo() != nil {
		return (*actor.PID)(r.req.ReplyTo())
	}
	return ctx.Sender()
}

// RespondTo sends resp to pid, if any.
func RespondTo(ctx actor.Context, pid *actor.PID, resp domain.ActorResponse) {
	if pid != nil {
		ctx.Send(pid, resp)
	}
}
