package models

import (
	"fmt"
	"math"
	"strings"
)

// CodecType tags a stream descriptor.
type CodecType string

const (
	CodecTypeVideo CodecType = "video"
	CodecTypeAudio CodecType = "audio"
	CodecTypeOther CodecType = "other"
)

// StreamInfo describes one stream of a probed file.
//
// The set of implementations is closed: VideoStreamInfo, AudioStreamInfo and
// OtherStreamInfo. Use a type switch or the MediaInfo accessors rather than
// asserting on CodecType strings.
type StreamInfo interface {
	Type() CodecType
	Codec() string
	isStreamInfo()
}

// Rational is a frame rate expressed as a fraction, e.g. 30000/1001.
type Rational struct {
	Num int64
	Den int64
}

// Float returns the rate rounded to two decimals, or 0 for an invalid fraction.
func (r Rational) Float() float64 {
	if r.Den == 0 {
		return 0
	}
	return math.Round(float64(r.Num)/float64(r.Den)*100) / 100
}

// String renders the rational in ffprobe notation.
func (r Rational) String() string {
	return fmt.Sprintf("%d/%d", r.Num, r.Den)
}

// VideoStreamInfo describes a video stream.
type VideoStreamInfo struct {
	CodecName   string
	Width       int
	Height      int
	FrameRate   Rational
	PixelFormat string
}

func (VideoStreamInfo) Type() CodecType { return CodecTypeVideo }
func (v VideoStreamInfo) Codec() string { return v.CodecName }
func (VideoStreamInfo) isStreamInfo()   {}

// Present reports whether the descriptor came from a real stream.
func (v VideoStreamInfo) Present() bool {
	return v.CodecName != "" || v.Width > 0 || v.Height > 0
}

// Resolution returns the frame size, or nil when width or height is unknown.
func (v VideoStreamInfo) Resolution() *Resolution {
	if v.Width <= 0 || v.Height <= 0 {
		return nil
	}
	return &Resolution{Width: v.Width, Height: v.Height}
}

// AudioStreamInfo describes an audio stream.
type AudioStreamInfo struct {
	CodecName     string
	SampleRate    int
	Channels      int
	ChannelLayout string
}

func (AudioStreamInfo) Type() CodecType { return CodecTypeAudio }
func (a AudioStreamInfo) Codec() string { return a.CodecName }
func (AudioStreamInfo) isStreamInfo()   {}

// Present reports whether the descriptor came from a real stream.
func (a AudioStreamInfo) Present() bool {
	return a.CodecName != "" || a.SampleRate > 0 || a.Channels > 0
}

// OtherStreamInfo covers subtitle, data and attachment streams.
type OtherStreamInfo struct {
	CodecName string
	RawType   string
}

func (OtherStreamInfo) Type() CodecType { return CodecTypeOther }
func (o OtherStreamInfo) Codec() string { return o.CodecName }
func (OtherStreamInfo) isStreamInfo()   {}

// Resolution is a frame size in pixels.
type Resolution struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// String renders the resolution as WIDTHxHEIGHT.
func (r Resolution) String() string {
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}

// MediaInfo is the result of probing one file.
//
// Values are immutable once constructed; a MediaInfo is built per probe and
// never cached across runs.
type MediaInfo struct {
	Path       string
	FormatName string
	Duration   float64 // seconds
	BitRate    int64   // bits per second
	Size       int64   // bytes, 0 when the prober did not report it
	Streams    []StreamInfo
}

// FirstVideo returns the first video stream, or a zero descriptor when the
// file has none.
func (m *MediaInfo) FirstVideo() VideoStreamInfo {
	if m == nil {
		return VideoStreamInfo{}
	}
	for _, s := range m.Streams {
		if v, ok := s.(VideoStreamInfo); ok {
			return v
		}
	}
	return VideoStreamInfo{}
}

// FirstAudio returns the first audio stream, or a zero descriptor when the
// file has none.
func (m *MediaInfo) FirstAudio() AudioStreamInfo {
	if m == nil {
		return AudioStreamInfo{}
	}
	for _, s := range m.Streams {
		if a, ok := s.(AudioStreamInfo); ok {
			return a
		}
	}
	return AudioStreamInfo{}
}

// HasVideo reports whether at least one video stream is present.
func (m *MediaInfo) HasVideo() bool {
	return m.FirstVideo().Present()
}

// VideoCodec returns the lower-cased codec of the first video stream, or
// "unknown".
func (m *MediaInfo) VideoCodec() string {
	return codecOrUnknown(m.FirstVideo().CodecName)
}

// AudioCodec returns the lower-cased codec of the first audio stream, or
// "unknown".
func (m *MediaInfo) AudioCodec() string {
	return codecOrUnknown(m.FirstAudio().CodecName)
}

// BitRateKbps returns the container bitrate in kilobits per second.
func (m *MediaInfo) BitRateKbps() int64 {
	return m.BitRate / 1000
}

// NeedsConversion reports whether the first video codec is one of the
// given codecs flagged as poorly compatible (e.g. "av1").
func (m *MediaInfo) NeedsConversion(flagged []string) bool {
	codec := m.VideoCodec()
	for _, f := range flagged {
		if strings.EqualFold(strings.TrimSpace(f), codec) {
			return true
		}
	}
	return false
}

func codecOrUnknown(name string) string {
	if name == "" {
		return "unknown"
	}
	return strings.ToLower(name)
}
