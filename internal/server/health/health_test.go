package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePinger struct{ err error }

func (f fakePinger) PingContext(context.Context) error { return f.err }

func TestChecker_ServeHTTP(t *testing.T) {
	down := errors.New("down")

	tests := []struct {
		name      string
		db, cache Pinger
		wantCode  int
		wantBody  string
	}{
		{"db only", fakePinger{}, nil, http.StatusOK, `{"database":true}`},
		{"db and cache", fakePinger{}, fakePinger{}, http.StatusOK, `{"database":true,"redis":true}`},
		{"cache down", fakePinger{}, fakePinger{err: down}, http.StatusServiceUnavailable, `{"database":true,"redis":false}`},
		{"db down", fakePinger{err: down}, nil, http.StatusServiceUnavailable, `{"database":false}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewChecker(tt.db, tt.cache, time.Second)
			rec := httptest.NewRecorder()
			c.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
		})
	}
}

func TestChecker_WithSQLDB(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectPing()
	st := NewChecker(db, nil, time.Second).Check(context.Background())
	assert.True(t, st.Database)
	assert.True(t, st.Healthy())

	mock.ExpectPing().WillReturnError(errors.New("gone"))
	st = NewChecker(db, nil, time.Second).Check(context.Background())
	assert.False(t, st.Database)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisPinger(t *testing.T) {
	_, err := NewRedisPinger("not a url")
	require.Error(t, err)

	// nothing listens on this port
	p, err := NewRedisPinger("redis://127.0.0.1:1/0")
	require.NoError(t, err)
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.Error(t, p.PingContext(ctx))

	var st Status
	require.NoError(t, json.Unmarshal([]byte(`{"database":true}`), &st))
	assert.Nil(t, st.Redis)
}
