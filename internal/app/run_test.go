package app

import (
	"bytes"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// TestRun_ServeCommand_FailsWithoutDatabase はDBに接続できない場合にserveがエラーで終了することを検証する。
func TestRun_ServeCommand_FailsWithoutDatabase(t *testing.T) {
	setTestEnv(t)

	var buf bytes.Buffer
	err := Run(&buf, []string{"serve"})
	if err == nil {
		t.Fatal("Run(serve) should fail when the database is unreachable")
	}
	if !strings.Contains(err.Error(), "database") {
		t.Errorf("error = %v, want database related error", err)
	}
}

func TestRun_DefaultCommand_FailsWithoutDatabase(t *testing.T) {
	setTestEnv(t)

	var buf bytes.Buffer
	if err := Run(&buf, []string{}); err == nil {
		t.Fatal("Run([]) should fail when the database is unreachable")
	}
}

func TestRun_MigrateCommand_FailsWithoutDatabase(t *testing.T) {
	setTestEnv(t)

	var buf bytes.Buffer
	err := Run(&buf, []string{"migrate"})
	if err == nil {
		t.Fatal("Run(migrate) should fail when the database is unreachable")
	}
	if !strings.Contains(err.Error(), "migration failed") {
		t.Errorf("error = %v", err)
	}
}

func TestRun_MigrateActions_FailWithoutDatabase(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"down", []string{"migrate", "down", "2"}, "rollback failed"},
		{"version", []string{"migrate", "version"}, "failed to read schema version"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setTestEnv(t)

			var buf bytes.Buffer
			err := Run(&buf, tt.args)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Run(%v) error = %v, want %q", tt.args, err, tt.wantErr)
			}
		})
	}
}

// 引数の誤りは初期化前に検出される
func TestRun_InvalidMigrateArgs_FailsBeforeInit(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "")

	var buf bytes.Buffer
	err := Run(&buf, []string{"migrate", "sideways"})
	if err == nil || !strings.Contains(err.Error(), "unknown action") {
		t.Errorf("error = %v, want unknown action", err)
	}
}

func TestRun_WithMissingEnv_ReturnsError(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "")

	var buf bytes.Buffer
	err := Run(&buf, []string{"serve"})
	if err == nil {
		t.Fatal("Run with missing env should return error")
	}
}

func TestRun_Healthcheck(t *testing.T) {
	t.Run("healthy server", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/health" {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		_, port, _ := net.SplitHostPort(srv.Listener.Addr().String())
		t.Setenv("SERVER_PORT", port)

		// healthcheckは設定の読み込みを行わない
		t.Setenv("DATABASE_URL", "")
		var buf bytes.Buffer
		if err := Run(&buf, []string{"healthcheck"}); err != nil {
			t.Fatalf("healthcheck: %v", err)
		}
	})

	t.Run("unhealthy server", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		_, port, _ := net.SplitHostPort(srv.Listener.Addr().String())
		if err := runHealthcheck(port); err == nil {
			t.Fatal("expected error for 503")
		}
	})
}
