package buffer

import (
	"fmt"
	"math/bits"
	"strings"
)

// Channel names one attribute array of a buffer. The set is closed: source
// channels carry per-entity data supplied by representations, vertex-only
// channels are generated by the buffer's geometry.
type Channel uint8

// Source channels.
const (
	ChannelPosition Channel = iota
	ChannelColor
	ChannelRadius
	ChannelPickingColor
	ChannelPosition1
	ChannelPosition2
	ChannelColor2
	ChannelPickingColor2
	ChannelSize

	// Vertex-only channels.
	ChannelMapping
	ChannelNormal
	ChannelOffset
	ChannelTexCoord

	// ChannelIndex stands for the index array in dirty sets.
	ChannelIndex

	numChannels
)

var channelNames = [numChannels]string{
	ChannelPosition:      "position",
	ChannelColor:         "color",
	ChannelRadius:        "radius",
	ChannelPickingColor:  "pickingColor",
	ChannelPosition1:     "position1",
	ChannelPosition2:     "position2",
	ChannelColor2:        "color2",
	ChannelPickingColor2: "pickingColor2",
	ChannelSize:          "size",
	ChannelMapping:       "mapping",
	ChannelNormal:        "normal",
	ChannelOffset:        "offset",
	ChannelTexCoord:      "texCoord",
	ChannelIndex:         "index",
}

// String returns the attribute name as used by shaders.
func (c Channel) String() string {
	if c < numChannels {
		return channelNames[c]
	}
	return fmt.Sprintf("Channel(%d)", int(c))
}

// Stride returns the number of float32 components per entity of a source
// channel. Vertex-only channels have a geometry-dependent stride and
// report 0.
func (c Channel) Stride() int {
	switch c {
	case ChannelRadius, ChannelSize:
		return 1
	case ChannelPosition, ChannelColor, ChannelPickingColor,
		ChannelPosition1, ChannelPosition2, ChannelColor2, ChannelPickingColor2:
		return 3
	default:
		return 0
	}
}

// Channels is a set of channels.
type Channels uint32

// ChannelSet builds a set from a list of channels.
func ChannelSet(chs ...Channel) Channels {
	var s Channels
	for _, c := range chs {
		s |= 1 << c
	}
	return s
}

// Has reports whether c is in the set.
func (s Channels) Has(c Channel) bool { return s&(1<<c) != 0 }

// Len returns the number of channels in the set.
func (s Channels) Len() int { return bits.OnesCount32(uint32(s)) }

// Each calls fn for every channel in ascending order.
func (s Channels) Each(fn func(c Channel)) {
	for c := Channel(0); c < numChannels; c++ {
		if s.Has(c) {
			fn(c)
		}
	}
}

// String returns the channel names joined by "|".
func (s Channels) String() string {
	var names []string
	s.Each(func(c Channel) { names = append(names, c.String()) })
	return strings.Join(names, "|")
}

// Attributes holds per-entity arrays keyed by source channel.
type Attributes map[Channel][]float32
