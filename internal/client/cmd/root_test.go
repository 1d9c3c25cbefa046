package cmd

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/Miura55/freee-labor-bot/internal/shared/models"
)

func TestRoot_Version(t *testing.T) {
	root := NewRootCmd("1.0.0", "2025-08-13")
	out := new(bytes.Buffer)
	root.SetOut(out)
	root.SetArgs([]string{"version"})
	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}
	got := out.String()
	if !strings.HasPrefix(got, "laborbot 1.0.0 (built 2025-08-13, go") || !strings.Contains(got, runtime.GOOS+"/"+runtime.GOARCH) {
		t.Fatalf("version output %q", got)
	}

	root.SetArgs([]string{"version", "extra"})
	if err := root.Execute(); err == nil {
		t.Fatal("version must reject arguments")
	}
}

func TestKeygen(t *testing.T) {
	root := NewRootCmd("dev", "unknown")
	out := new(bytes.Buffer)
	root.SetOut(out)
	root.SetArgs([]string{"keygen"})
	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(out.String()))
	if err != nil || len(key) != tokenKeyLength {
		t.Fatalf("bad key %q: %v", out.String(), err)
	}

	path := filepath.Join(t.TempDir(), "token.key")
	root.SetArgs([]string{"keygen", "--out", path})
	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("key file mode %v", info.Mode().Perm())
	}
	root.SetArgs([]string{"keygen", "--out", path})
	if err := root.Execute(); err == nil {
		t.Fatal("expected error when the key file exists")
	}
}

func TestToken_PutAndShow(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("LABORBOT_DB_DSN", "file:"+filepath.Join(dir, "laborbot.db"))
	t.Setenv("FREEE_COMPANY_ID", "7")
	t.Setenv("LABORBOT_TOKEN_KEY", base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{1}, 32)))

	root := NewRootCmd("dev", "unknown")
	out := new(bytes.Buffer)
	root.SetOut(out)
	root.SetIn(strings.NewReader("access-token-123456\nrefresh-token-abcdef\n"))
	root.SetArgs([]string{"token", "put", "--expires-in", "1h"})
	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "tenant 7") {
		t.Fatalf("put output %q", out.String())
	}

	out.Reset()
	root.SetArgs([]string{"token", "show"})
	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}
	got := out.String()
	if !strings.Contains(got, "acce***********3456") || strings.Contains(got, "access-token-123456") {
		t.Fatalf("show output %q", got)
	}
}

func TestToken_PutRequiresAccessToken(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("LABORBOT_DB_DSN", "file:"+filepath.Join(dir, "laborbot.db"))

	root := NewRootCmd("dev", "unknown")
	root.SetOut(new(bytes.Buffer))
	root.SetIn(strings.NewReader("\n"))
	root.SetArgs([]string{"token", "put"})
	if err := root.Execute(); err == nil {
		t.Fatal("expected error for empty access token")
	}
}

func TestMask(t *testing.T) {
	cases := map[string]string{
		"":           "(none)",
		"short":      "*****",
		"0123456789": "0123**6789",
	}
	for in, want := range cases {
		if got := mask(in); got != want {
			t.Fatalf("mask(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRegister(t *testing.T) {
	var got models.RegisterRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/register" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		if got.EmployeeID == "dup" {
			w.WriteHeader(http.StatusConflict)
			w.Write([]byte(`{"error":"already registered"}`))
			return
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(models.UserRecord{UserID: "U1", EmployeeID: got.EmployeeID})
	}))
	defer srv.Close()

	root := NewRootCmd("dev", "unknown")
	out := new(bytes.Buffer)
	root.SetOut(out)
	root.SetArgs([]string{"register", "--server", srv.URL, "--token", "jwt", "--employee", "E1"})
	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}
	if got.RegistrationToken != "jwt" || !strings.Contains(out.String(), "employee E1") {
		t.Fatalf("request %+v output %q", got, out.String())
	}

	root.SetArgs([]string{"register", "--server", srv.URL, "--token", "jwt", "--employee", "dup"})
	err := root.Execute()
	if err == nil || !strings.Contains(err.Error(), "409") {
		t.Fatalf("want conflict error, got %v", err)
	}
}
