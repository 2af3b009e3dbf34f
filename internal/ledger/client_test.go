package ledger_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/chainproof-io/chainproof/internal/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnchor(t *testing.T) {
	var gotBody map[string]string
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/anchors", r.URL.Path)
		gotKey = r.Header.Get("X-API-Key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"transactionRef": "0xcafe",
			"blockRef":       "9001",
			"timestamp":      time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC),
			"subjectAddress": "0xowner",
		})
	}))
	defer srv.Close()

	client, err := ledger.NewClient(srv.URL, "relay-key")
	require.NoError(t, err)

	rec, err := client.Anchor(context.Background(), "user-1", "hash-abc", "QmAux")
	require.NoError(t, err)
	assert.Equal(t, "0xcafe", rec.TransactionRef)
	assert.Equal(t, "9001", rec.BlockRef)
	assert.Equal(t, "0xowner", rec.SubjectAddress)
	assert.Equal(t, time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC), rec.Timestamp)

	assert.Equal(t, "relay-key", gotKey)
	assert.Equal(t, "user-1", gotBody["subjectId"])
	assert.Equal(t, "hash-abc", gotBody["contentHash"])
	assert.Equal(t, "QmAux", gotBody["auxHash"])
}

func TestAnchorRelayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "insufficient gas", http.StatusBadGateway)
	}))
	defer srv.Close()

	client, err := ledger.NewClient(srv.URL, "")
	require.NoError(t, err)

	_, err = client.Anchor(context.Background(), "user-1", "hash", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestAnchorMissingTransactionRef(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"blockRef":"1"}`))
	}))
	defer srv.Close()

	client, err := ledger.NewClient(srv.URL, "")
	require.NoError(t, err)

	_, err = client.Anchor(context.Background(), "user-1", "hash", "")
	require.Error(t, err)
}
