package ioworker

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/muexxl/rtkbase/internal/ubx"
)

func TestInboxPreservesFIFOOrder(t *testing.T) {
	inbox := &Inbox{}
	inbox.Push(ubx.Message{ID: ubx.IDNavSVIN})
	inbox.Push(ubx.Message{ID: ubx.IDNavStatus})
	inbox.Push(ubx.Message{ID: ubx.IDNavPVT})

	drained := inbox.DrainAll()
	assert.Equal(t, []ubx.ID{ubx.IDNavSVIN, ubx.IDNavStatus, ubx.IDNavPVT}, []ubx.ID{drained[0].ID, drained[1].ID, drained[2].ID})

	assert.Nil(t, inbox.DrainAll())
}

func TestMailboxPreservesFIFOOrder(t *testing.T) {
	mailbox := &Mailbox{}
	mailbox.Push([]byte{1})
	mailbox.Push([]byte{2})

	drained := mailbox.DrainAll()
	assert.Equal(t, [][]byte{{1}, {2}}, drained)
	assert.Nil(t, mailbox.DrainAll())
}
