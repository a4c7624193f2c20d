package actorutil

import (
	"github.com/asynkron/protoactor-go/actor"
)

// ActorWithStates tracks the behavior of an actor together with the name of its current state.
type ActorWithStates struct {
	Behavior actor.Behavior
	stack    []string
}

type ActorState interface {
	Name() string
	Receive(actor.Context)
}

// NamedState adapts a receive function to ActorState.
type NamedState struct {
	StateName string
	Fn        actor.ReceiveFunc
}

func (s NamedState) Name() string {
	return s.StateName
}

func (s NamedState) Receive(ctx actor.Context) {
	s.Fn(ctx)
}

func NewActorWithStates() ActorWithStates {
	return ActorWithStates{Behavior: actor.NewBehavior()}
}

func (s *ActorWithStates) Become(state ActorState) {
	s.stack = []string{state.Name()}
	s.Behavior.Become(state.Receive)
}

func (s *ActorWithStates) BecomeStacked(state ActorState) {
	s.stack = append(s.stack, state.Name())
	s.Behavior.BecomeStacked(state.Receive)
}

func (s *ActorWithStates) UnbecomeStacked() {
	if len(s.stack) > 0 {
		s.stack = s.stack[:len(s.stack)-1]
	}
	s.Behavior.UnbecomeStacked()
}

// StateName returns the name of the active state, "" before the first Become.
func (s *ActorWithStates) StateName() string {
	if len(s.stack) == 0 {
		return ""
	}
	return s.stack[len(s.stack)-1]
}
