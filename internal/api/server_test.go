package api

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jcmxo/98-pfm-traza-2025/internal/engine"
	"github.com/jcmxo/98-pfm-traza-2025/internal/ledger"
)

func TestServer_StartStop(t *testing.T) {
	e := engine.New(ledger.NewMemoryStore(), engine.Options{})
	defer e.Close()

	srv, err := NewServer(ServerConfig{
		Addr:   "localhost:0",
		Engine: e,
	})
	require.NoError(t, err)
	require.Greater(t, srv.Port(), 0, "port should be assigned before Start")

	done := make(chan error, 1)
	go func() { done <- srv.Start() }()

	url := fmt.Sprintf("http://localhost:%d/health", srv.Port())
	var resp *http.Response
	require.Eventually(t, func() bool {
		var err error
		resp, err = http.Get(url) // #nosec G107 -- local test server
		return err == nil
	}, 2*time.Second, 10*time.Millisecond, "server should come up")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, srv.Stop(ctx))

	err = <-done
	require.ErrorIs(t, err, http.ErrServerClosed)
}

func TestServer_BadAddr(t *testing.T) {
	e := engine.New(ledger.NewMemoryStore(), engine.Options{})
	defer e.Close()

	_, err := NewServer(ServerConfig{Addr: "localhost:-1", Engine: e})
	require.Error(t, err)
}
