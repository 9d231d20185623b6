package notification

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relink-tools/relink/pkg/logger"
)

func sendToCapture(t *testing.T, fields []Field) DiscordMessage {
	t.Helper()

	var captured DiscordMessage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	sender := NewDiscordSender(logger.GetLogger("test"), server.URL)
	require.NoError(t, sender.Send("Relink", "run summary", time.Second, fields))

	return captured
}

func makeFields(n int) []Field {
	fields := make([]Field, n)
	for i := range fields {
		fields[i] = Field{
			Name:  fmt.Sprintf("group-%02d", i),
			Value: "2 paths relinked",
		}
	}
	return fields
}

func TestDiscordSender_Send_CapsEmbedFields(t *testing.T) {
	captured := sendToCapture(t, makeFields(30))

	require.Len(t, captured.Embeds, 1)
	embedFields := captured.Embeds[0].Fields

	// discord rejects embeds with more than 25 fields; the overflow
	// summary must occupy the last slot, not follow it
	require.LessOrEqual(t, len(embedFields), maxFieldsPerEmbed)
	require.Len(t, embedFields, maxFieldsPerEmbed)

	assert.Equal(t, "group-00", embedFields[0].Name)
	assert.Equal(t, "group-23", embedFields[maxFieldsPerEmbed-2].Name)

	last := embedFields[len(embedFields)-1]
	assert.Equal(t, "...", last.Name)
	assert.Equal(t, "and 6 more", last.Value)
}

func TestDiscordSender_Send_WithinCapKeepsAllFields(t *testing.T) {
	captured := sendToCapture(t, makeFields(maxFieldsPerEmbed))

	require.Len(t, captured.Embeds, 1)
	embedFields := captured.Embeds[0].Fields

	// exactly at the cap no summary is needed
	require.Len(t, embedFields, maxFieldsPerEmbed)
	assert.Equal(t, "group-24", embedFields[maxFieldsPerEmbed-1].Name)
}

func TestDiscordSender_CanSend(t *testing.T) {
	log := logger.GetLogger("test")

	assert.False(t, NewDiscordSender(log, "").CanSend())
	assert.True(t, NewDiscordSender(log, "https://example.com/webhook").CanSend())
}
