package approval

import (
	"context"
	"fmt"

	"github.com/Possessed66/BotLMKRD/internal/notify"
	"github.com/Possessed66/BotLMKRD/internal/session"
)

// PromptHost re-hosts a resumed session by prompting the requester for the
// session's next step over the notification channel.
type PromptHost struct {
	Channel notify.Channel
}

func (h PromptHost) Reactivate(ctx context.Context, userID int64, sess session.Session) error {
	text := fmt.Sprintf(
		"✅ Order approved, picking up where you left off.\n\n"+
			"📦 Item: %s\n"+
			"🏷️ Name: %s\n"+
			"🔢 Department: %s\n"+
			"🔢 Quantity: %d\n\n%s",
		sess.Context.ItemRef, sess.Context.ItemName, sess.Context.Department,
		sess.Context.Quantity, stepPrompt(sess.Step),
	)
	if _, err := h.Channel.Send(ctx, userID, text); err != nil {
		return fmt.Errorf("reactivate session for user %d: %w", userID, err)
	}
	return nil
}

func stepPrompt(step session.Step) string {
	switch step {
	case session.StepQuantity:
		return "🔢 Enter the quantity:"
	case session.StepReason:
		return "📝 Enter the order reason:"
	case session.StepConfirm:
		return "🔎 Review the order and confirm:"
	default:
		return "Continue your order."
	}
}
