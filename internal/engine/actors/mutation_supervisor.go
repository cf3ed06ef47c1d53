package actors

import (
	"log/slog"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"

	"applynest/internal/database"
	"applynest/internal/utils"
)

// MutationSupervisor routes post mutation messages to one
// PostMutatorActor per post, spawning them on first use. A deleted
// post's mutator is stopped so the map does not grow without bound.
type MutationSupervisor struct {
	store    database.Store
	logger   *slog.Logger
	mutators map[uuid.UUID]*actor.PID
}

func NewMutationSupervisor(store database.Store, logger *slog.Logger) actor.Actor {
	return &MutationSupervisor{
		store:    store,
		logger:   logger,
		mutators: make(map[uuid.UUID]*actor.PID),
	}
}

func (s *MutationSupervisor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *actor.Started:
		s.logger.Debug("mutation supervisor started")

	case *ToggleLikeMsg:
		s.forward(context, msg.PostID, msg)

	case *AddCommentMsg:
		s.forward(context, msg.PostID, msg)

	case *EditPostMsg:
		s.forward(context, msg.Post.ID, msg)

	case *DeletePostMsg:
		s.forwardDelete(context, msg)
	}
}

func (s *MutationSupervisor) mutatorFor(context actor.Context, postID uuid.UUID) *actor.PID {
	if pid, ok := s.mutators[postID]; ok {
		return pid
	}
	props := actor.PropsFromProducer(func() actor.Actor {
		return NewPostMutatorActor(postID, s.store, s.logger)
	})
	pid := context.Spawn(props)
	s.mutators[postID] = pid
	s.logger.Debug("spawned post mutator", "post_id", postID)
	return pid
}

func (s *MutationSupervisor) forward(context actor.Context, postID uuid.UUID, msg interface{}) {
	pid := s.mutatorFor(context, postID)
	future := context.RequestFuture(pid, msg, 5*time.Second)
	result, err := future.Result()
	if err != nil {
		s.logger.Error("post mutator did not answer", "post_id", postID, "error", err)
		context.Respond(utils.NewAppError(utils.ErrMutatorTimeout, "post mutation timed out", err))
		return
	}
	context.Respond(result)
}

func (s *MutationSupervisor) forwardDelete(context actor.Context, msg *DeletePostMsg) {
	pid := s.mutatorFor(context, msg.PostID)
	future := context.RequestFuture(pid, msg, 5*time.Second)
	result, err := future.Result()
	if err != nil {
		s.logger.Error("post mutator did not answer", "post_id", msg.PostID, "error", err)
		context.Respond(utils.NewAppError(utils.ErrMutatorTimeout, "post mutation timed out", err))
		return
	}
	if deleted, ok := result.(bool); ok && deleted {
		context.Stop(pid)
		delete(s.mutators, msg.PostID)
	}
	context.Respond(result)
}
