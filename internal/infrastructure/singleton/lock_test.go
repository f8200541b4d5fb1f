package singleton

import (
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func freePort(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())
	return ":" + strconv.Itoa(port)
}

func portOf(t *testing.T, url string) string {
	t.Helper()
	_, port, err := net.SplitHostPort(url[len("http://"):])
	require.NoError(t, err)
	return ":" + port
}

func TestCheckAndLock_PortAvailable(t *testing.T) {
	result, err := CheckAndLock(freePort(t))
	require.NoError(t, err)
	require.NotNil(t, result)
	defer result.Close()
}

func TestCheckAndLock_HealthyInstance(t *testing.T) {
	listener, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	server := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok","service":"edachat"}`))
	}))
	server.Listener = listener
	server.Start()
	defer server.Close()

	port := ":" + strconv.Itoa(listener.Addr().(*net.TCPAddr).Port)
	result, err := CheckAndLock(port)
	assert.NoError(t, err)
	assert.Nil(t, result)
}

func TestCheckAndLock_UnhealthyHolder(t *testing.T) {
	listener, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer listener.Close()

	result, err := CheckAndLock(":" + strconv.Itoa(listener.Addr().(*net.TCPAddr).Port))
	assert.ErrorIs(t, err, ErrPortTaken)
	assert.Nil(t, result)
}

func TestIsAddrInUse(t *testing.T) {
	l1, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer l1.Close()

	_, inUse := net.Listen("tcp", l1.Addr().String())
	assert.True(t, isAddrInUse(inUse))

	_, invalid := net.Listen("tcp", "invalid")
	assert.False(t, isAddrInUse(invalid))
	assert.False(t, isAddrInUse(nil))
}

func TestIsInstanceRunning(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   bool
	}{
		{"healthy edachat", http.StatusOK, `{"status":"ok","service":"edachat"}`, true},
		{"other service", http.StatusOK, `{"status":"ok","service":"other"}`, false},
		{"not json", http.StatusOK, `ok`, false},
		{"server error", http.StatusInternalServerError, `{"status":"ok","service":"edachat"}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			assert.Equal(t, tt.want, isInstanceRunning(portOf(t, server.URL)))
		})
	}

	t.Run("nothing listening", func(t *testing.T) {
		assert.False(t, isInstanceRunning(freePort(t)))
	})
}
