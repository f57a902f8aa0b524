package protocol

import (
	"encoding/json"
	"testing"

	"github.com/HMasataka/scoreline/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEnvelope(t *testing.T) {
	env, err := NewEnvelope(domain.EventPoint, domain.PointCommand{MatchID: "m1", Team: "A", Step: 1})
	require.NoError(t, err)

	assert.NotEmpty(t, env.ID)
	assert.Equal(t, domain.EventPoint, env.Event)
	assert.JSONEq(t, `{"matchId":"m1","team":"A","step":1}`, string(env.Data))
}

func TestJSONCodecRoundTrip(t *testing.T) {
	codec := NewJSONCodec()
	env, err := NewEnvelope(domain.EventJoin, domain.RoomRequest{MatchID: "m1"})
	require.NoError(t, err)

	data, err := codec.Encode(env)
	require.NoError(t, err)

	decoded, err := codec.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, env.ID, decoded.ID)

	var req domain.RoomRequest
	require.NoError(t, json.Unmarshal(decoded.Data, &req))
	assert.Equal(t, "m1", req.MatchID)
}

func TestJSONCodecRejects(t *testing.T) {
	codec := NewJSONCodec()

	_, err := codec.Decode([]byte(`not json`))
	assert.Error(t, err)

	_, err = codec.Decode([]byte(`{"data":{"version":1}}`))
	assert.ErrorIs(t, err, domain.ErrInvalidMessage)
}

func TestNilPayloadOmitsData(t *testing.T) {
	env, err := NewEnvelope(domain.EventUndo, nil)
	require.NoError(t, err)

	data, err := NewJSONCodec().Encode(env)
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"data"`)
}
