package framing

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/hlxmatrix/errors"
)

func TestEncode(t *testing.T) {
	assert.Equal(t, "[QO1]", string(Encode(Request, "QO1")))
	assert.Equal(t, "(VO2R-20)", string(Encode(Response, "VO2R-20")))
	assert.Equal(t, "(GM1)", Frame{Role: Response, Payload: "GM1"}.String())
}

func TestRole(t *testing.T) {
	assert.Equal(t, "request", Request.String())
	assert.Equal(t, "response", Response.String())
	assert.Equal(t, "unknown", Role(0).String())
}

func TestCodec_Feed(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  []Frame
	}{
		{
			name:  "single response",
			input: []string{"(GM1)"},
			want:  []Frame{{Response, "GM1"}},
		},
		{
			name:  "mixed roles",
			input: []string{"[QO1](VO1R-20)(QO1)"},
			want:  []Frame{{Request, "QO1"}, {Response, "VO1R-20"}, {Response, "QO1"}},
		},
		{
			name:  "split across feeds",
			input: []string{"(VO", "2R-", "20)"},
			want:  []Frame{{Response, "VO2R-20"}},
		},
		{
			name:  "noise between frames",
			input: []string{"garbage\r\n(GM1)\r\n xx [QX]"},
			want:  []Frame{{Response, "GM1"}, {Request, "QX"}},
		},
		{
			name:  "opener restarts partial frame",
			input: []string{"(VO2R(GM1)"},
			want:  []Frame{{Response, "GM1"}},
		},
		{
			name:  "closer of other role abandons frame",
			input: []string{"(GM1](GUM1)"},
			want:  []Frame{{Response, "GUM1"}},
		},
		{
			name:  "stray closer ignored",
			input: []string{")](GM1)"},
			want:  []Frame{{Response, "GM1"}},
		},
		{
			name:  "empty payload",
			input: []string{"()"},
			want:  []Frame{{Response, ""}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			codec := NewCodec()
			var got []Frame
			for _, chunk := range tt.input {
				frames, err := codec.Feed([]byte(chunk))
				require.NoError(t, err)
				got = append(got, frames...)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCodec_OverflowDropsAndContinues(t *testing.T) {
	codec := NewCodec(WithMaxFrame(8))

	input := "(GM1)(" + strings.Repeat("A", 20) + ")(GUM1)"
	frames, err := codec.Feed([]byte(input))

	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrFramingOverflow)
	assert.Equal(t, []Frame{{Response, "GM1"}, {Response, "GUM1"}}, frames)
	assert.Equal(t, 0, codec.Pending())
}

func TestCodec_OverflowAcrossFeeds(t *testing.T) {
	codec := NewCodec(WithMaxFrame(4))

	frames, err := codec.Feed([]byte("(ABCD"))
	require.NoError(t, err)
	assert.Empty(t, frames)
	assert.Equal(t, 4, codec.Pending())

	_, err = codec.Feed([]byte("E"))
	assert.ErrorIs(t, err, errors.ErrFramingOverflow)

	frames, err = codec.Feed([]byte("F)(QX)"))
	require.NoError(t, err)
	assert.Equal(t, []Frame{{Response, "QX"}}, frames)
}

func TestCodec_Reset(t *testing.T) {
	codec := NewCodec()
	_, _ = codec.Feed([]byte("(VO1R"))
	codec.Reset()

	frames, err := codec.Feed([]byte("-20)"))
	require.NoError(t, err)
	assert.Empty(t, frames)
}

func TestWithMaxFrame_IgnoresNonPositive(t *testing.T) {
	assert.Equal(t, DefaultMaxFrame, NewCodec(WithMaxFrame(0)).max)
}
