package presence

import (
	"testing"

	"github.com/VladGeana/radar/internal/ierr"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestRegistry_Register(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	t.Run("joins own named group", func(t *testing.T) {
		registry := NewRegistry(logger)

		conn, err := registry.Register("s1", KindRoom, "R1")

		assert.NoError(t, err)
		assert.Equal(t, "s1", conn.Id)
		assert.Equal(t, KindRoom, conn.Kind)
		assert.True(t, registry.IsOnline("R1"))
		assert.Equal(t, 1, registry.GroupSize("R1"))
	})

	t.Run("duplicate connection id rejected", func(t *testing.T) {
		registry := NewRegistry(logger)

		_, err := registry.Register("s1", KindRoom, "R1")
		assert.NoError(t, err)

		_, err = registry.Register("s1", KindVisitor, "V1")

		assert.Error(t, err)
		assert.ErrorIs(t, err, ErrDuplicateConnection)
		assert.Equal(t, ierr.ErrorCodeAlreadyExists, ierr.CodeOf(err))

		// The existing registration is untouched.
		assert.True(t, registry.IsOnline("R1"))
		assert.False(t, registry.IsOnline("V1"))
	})

	t.Run("empty identity name rejected", func(t *testing.T) {
		registry := NewRegistry(logger)

		_, err := registry.Register("s1", KindVisitor, "")

		assert.ErrorIs(t, err, ErrInvalidIdentity)
		assert.Equal(t, ierr.ErrorCodeInvalidArgument, ierr.CodeOf(err))
	})

	t.Run("unknown identity kind rejected", func(t *testing.T) {
		registry := NewRegistry(logger)

		_, err := registry.Register("s1", IdentityKind("ghost"), "G1")

		assert.ErrorIs(t, err, ErrInvalidIdentity)
	})
}

func TestRegistry_Unregister(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	t.Run("removes connection from every group", func(t *testing.T) {
		registry := NewRegistry(logger)

		_, err := registry.Register("s1", KindVisitor, "V1")
		assert.NoError(t, err)
		assert.NoError(t, registry.Join("s1", "R1"))

		registry.Unregister("s1")

		assert.False(t, registry.IsOnline("V1"))
		assert.Equal(t, 0, registry.GroupSize("V1"))
		assert.Equal(t, 0, registry.GroupSize("R1"))
		assert.Empty(t, registry.Snapshot())
	})

	t.Run("idempotent", func(t *testing.T) {
		registry := NewRegistry(logger)

		_, err := registry.Register("s1", KindRoom, "R1")
		assert.NoError(t, err)

		registry.Unregister("s1")
		stateAfterFirst := registry.Snapshot()

		assert.NotPanics(t, func() {
			registry.Unregister("s1")
		})
		assert.Equal(t, stateAfterFirst, registry.Snapshot())
	})

	t.Run("unknown id is a no-op", func(t *testing.T) {
		registry := NewRegistry(logger)

		assert.NotPanics(t, func() {
			registry.Unregister("never-registered")
		})
	})
}

func TestRegistry_JoinLeave(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	t.Run("join grows the group", func(t *testing.T) {
		registry := NewRegistry(logger)

		_, err := registry.Register("s1", KindRoom, "R2")
		assert.NoError(t, err)
		_, err = registry.Register("s2", KindVisitor, "V1")
		assert.NoError(t, err)

		assert.NoError(t, registry.Join("s2", "R2"))
		assert.Equal(t, 2, registry.GroupSize("R2"))

		registry.Leave("s2", "R2")
		assert.Equal(t, 1, registry.GroupSize("R2"))
	})

	t.Run("join requires a registered connection", func(t *testing.T) {
		registry := NewRegistry(logger)

		err := registry.Join("ghost", "R1")

		assert.ErrorIs(t, err, ErrConnectionNotFound)
		assert.Equal(t, ierr.ErrorCodeNotFound, ierr.CodeOf(err))
	})

	t.Run("leave of unknown membership is a no-op", func(t *testing.T) {
		registry := NewRegistry(logger)

		assert.NotPanics(t, func() {
			registry.Leave("ghost", "R1")
		})
	})
}

func TestRegistry_Snapshot(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	registry := NewRegistry(logger)

	_, err := registry.Register("s1", KindRoom, "R1")
	assert.NoError(t, err)
	_, err = registry.Register("s2", KindVisitor, "V1")
	assert.NoError(t, err)
	assert.NoError(t, registry.Join("s2", "R1"))

	infos := registry.Snapshot()

	assert.Len(t, infos, 2)
	assert.Equal(t, "s1", infos[0].Id)
	assert.Equal(t, []string{"R1"}, infos[0].Groups)
	assert.Equal(t, "s2", infos[1].Id)
	assert.Equal(t, []string{"R1", "V1"}, infos[1].Groups)

	// Snapshots are fresh reads, not cached views.
	registry.Unregister("s2")
	assert.Len(t, registry.Snapshot(), 1)
}

func TestRegistry_Send(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	t.Run("send racing unregister does not panic", func(t *testing.T) {
		registry := NewRegistry(logger)

		done := make(chan struct{})
		go func() {
			defer close(done)

			for i := 0; i < 2000; i++ {
				if _, err := registry.Register("s1", KindRoom, "R1"); err == nil {
					registry.Unregister("s1")
				}
			}
		}()

		assert.NotPanics(t, func() {
			for i := 0; i < 2000; i++ {
				registry.SendToGroup("R1", i)
				registry.SendToAll(i)
				registry.SendTo("s1", i)
			}
		})

		<-done
	})

	t.Run("backed up connection is evicted", func(t *testing.T) {
		registry := NewRegistry(logger)

		_, err := registry.Register("s1", KindRoom, "R1")
		assert.NoError(t, err)

		// Nothing drains the channel, so the buffer eventually fills and
		// the overflowing send evicts the connection.
		for i := 0; i <= sendBufferSize; i++ {
			registry.SendToGroup("R1", i)
		}

		assert.False(t, registry.IsOnline("R1"))
		assert.Equal(t, 0, registry.GroupSize("R1"))
	})

	t.Run("send to unknown id is a no-op", func(t *testing.T) {
		registry := NewRegistry(logger)

		assert.NotPanics(t, func() {
			registry.SendTo("ghost", "frame")
		})
	})
}

