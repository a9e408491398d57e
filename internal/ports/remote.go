package ports

import "context"

// Remote performs the outbound exchanges of the handshake.
// Implementations own connection handling, timeouts and status checking;
// any transport-level failure is reported wrapped in domain.ErrTransport.
type Remote interface {
	// Greet sends the phase-1 request and returns the decoded response.
	Greet(ctx context.Context, req GreetRequest) (GreetResponse, error)

	// Redeem sends the phase-3 request carrying the combined code.
	Redeem(ctx context.Context, code string) (RedeemResponse, error)
}

// GreetRequest is the phase-1 payload.
type GreetRequest struct {
	// Msg is the fixed greeting string.
	Msg string `json:"msg"`

	// URL is the callback URL the remote party delivers the second fragment to.
	URL string `json:"url"`
}

// GreetResponse carries the first fragment. Part1 is empty when the
// remote omitted it.
type GreetResponse struct {
	Part1 string `json:"part1"`
}

// RedeemResponse carries the final message. Msg is empty when the
// remote omitted it.
type RedeemResponse struct {
	Msg string `json:"msg"`
}
