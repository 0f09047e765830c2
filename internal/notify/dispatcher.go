package notify

import (
	"context"
	"fmt"
	"io"

	"github.com/farmsight/farmsight/internal/contract"
	"github.com/farmsight/farmsight/schema"
)

// LogDispatcher writes intents to a writer, one line each. It is the default
// delivery channel; real channels plug in behind contract.Dispatcher.
type LogDispatcher struct {
	Writer io.Writer
}

var _ contract.Dispatcher = &LogDispatcher{} // Compile-time check

// Dispatch implements the Dispatcher interface.
func (d *LogDispatcher) Dispatch(_ context.Context, intent schema.NotificationIntent) error {
	t := intent.Transition
	_, err := fmt.Fprintf(d.Writer, "notify %s: member %s %s -> %s (%s)\n",
		intent.RecipientID, t.MemberID, t.Previous, t.New, intent.MessageKind)
	return err
}
