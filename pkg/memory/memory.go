// Package memory stores the transcript of pipeline exchanges per support
// conversation, so follow-up requests can see what was already asked and
// answered.
package memory

import (
	"github.com/barekit/remedy/pkg/memory/types"
)

// Exchange is one completed pipeline round-trip within a conversation.
type Exchange = types.Exchange

// Memory represents a storage for conversation transcripts.
type Memory = types.Memory
