package index

import (
	"fmt"
	"strings"
)

type Channel int

const (
	ChannelEmail Channel = iota
	ChannelMobile
)

var Channels = []Channel{ChannelEmail, ChannelMobile}

func (c Channel) String() string {
	switch c {
	case ChannelEmail:
		return "email"
	case ChannelMobile:
		return "mobile"
	default:
		return fmt.Sprintf("channel(%d)", int(c))
	}
}

func ParseChannel(raw string) (Channel, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "email":
		return ChannelEmail, nil
	case "mobile":
		return ChannelMobile, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownChannel, raw)
	}
}

// Transition is what a single ingestion did to one channel of one user.
type Transition int

const (
	// TransitionNone: no claim before, none after.
	TransitionNone Transition = iota
	TransitionClaimed
	TransitionReleased
	TransitionMoved
	TransitionUnchanged
)

func (t Transition) String() string {
	switch t {
	case TransitionNone:
		return "none"
	case TransitionClaimed:
		return "claimed"
	case TransitionReleased:
		return "released"
	case TransitionMoved:
		return "moved"
	case TransitionUnchanged:
		return "unchanged"
	default:
		return fmt.Sprintf("transition(%d)", int(t))
	}
}

// Result reports the transition applied to each channel.
type Result struct {
	Email  Transition
	Mobile Transition
}

func (r Result) For(ch Channel) Transition {
	if ch == ChannelMobile {
		return r.Mobile
	}
	return r.Email
}
