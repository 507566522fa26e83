package audio

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sinkInputs = `Sink Input #41
	Driver: protocol-native.c
	Volume: front-left: 52428 /  80% / -5.81 dB,   front-right: 52428 /  80% / -5.81 dB
	Properties:
		application.name = "Firefox"
Sink Input #57
	Volume: front-left: 65536 / 100% / 0.00 dB
	Properties:
		application.name = "voxtalk"
Sink Input #bogus
	Volume: mono: 100%
`

func TestParseSinkInputs(t *testing.T) {
	got := parseSinkInputs(sinkInputs)

	assert.Equal(t, []streamInfo{
		{ID: 41, Volume: 80, AppName: "Firefox"},
		{ID: 57, Volume: 100, AppName: "voxtalk"},
	}, got)

	assert.Nil(t, parseSinkInputs(""))
}

type fakePactl struct {
	list string
	sets []string
}

func (f *fakePactl) run(_ context.Context, args ...string) ([]byte, error) {
	if args[0] == "list" {
		return []byte(f.list), nil
	}
	f.sets = append(f.sets, strings.Join(args[1:], " "))
	return nil, nil
}

func TestDuckerLowersOthersAndRestores(t *testing.T) {
	fp := &fakePactl{list: sinkInputs}
	d := NewDucker([]string{"voxtalk"}, 0.5, 0)
	d.pactl = fp.run

	require.NoError(t, d.Duck(context.Background()))
	assert.Equal(t, []string{"41 40%"}, fp.sets)

	// second duck is a no-op
	require.NoError(t, d.Duck(context.Background()))
	assert.Len(t, fp.sets, 1)

	fp.list = strings.Replace(sinkInputs, "80%", "40%", 2)
	require.NoError(t, d.Restore(context.Background()))
	assert.Equal(t, []string{"41 40%", "41 80%"}, fp.sets)

	require.NoError(t, d.Restore(context.Background()))
	assert.Len(t, fp.sets, 2)
}
