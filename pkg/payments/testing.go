package payments

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v82/webhook"
)

// SignPayload builds a Stripe-Signature header for payload, as the processor
// would. Used by tests and local webhook replays.
func SignPayload(payload []byte, secret string, at time.Time) string {
	sig := webhook.ComputeSignature(at, payload, secret)
	return fmt.Sprintf("t=%d,v1=%s", at.Unix(), hex.EncodeToString(sig))
}
