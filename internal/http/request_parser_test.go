package http

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"glreport/internal/report"
)

func TestOptionsFromQuery(t *testing.T) {
	q, err := url.ParseQuery("company=Acme&party=A&party=B&account=%5B%22X%22%2C%22Y%22%5D&project=[broken&show_remarks=1")
	require.NoError(t, err)

	options := OptionsFromQuery(q)
	assert.Equal(t, "Acme", options["company"])
	assert.Equal(t, []any{"A", "B"}, options["party"])
	assert.Equal(t, []any{"X", "Y"}, options["account"])
	assert.Equal(t, "[broken", options["project"])

	f := report.ParseFilters(options)
	assert.Equal(t, report.Set{"A", "B"}, f.Parties)
	assert.Equal(t, report.Set{"X", "Y"}, f.Accounts)
	assert.True(t, f.ShowRemarks)
}

func TestDecodeOptions(t *testing.T) {
	cases := []struct {
		name       string
		body       string
		allowEmpty bool
		wantErr    bool
		wantLen    int
	}{
		{"object", `{"company":"Acme","party":["A"]}`, false, false, 2},
		{"empty allowed", "  ", true, false, 0},
		{"empty rejected", "", false, true, 0},
		{"null", "null", false, false, 0},
		{"array", `["a"]`, true, true, 0},
		{"garbage", `{"company":`, true, true, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))
			options, err := DecodeOptions(req, httptest.NewRecorder(), tc.allowEmpty)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, options, tc.wantLen)
		})
	}
}

func TestDecodeOptions_TooLarge(t *testing.T) {
	body := `{"company":"` + strings.Repeat("a", maxBodyBytes) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	_, err := DecodeOptions(req, httptest.NewRecorder(), false)
	require.Error(t, err)
}

func TestClientIP_UntrustedPeerIgnoresHeaders(t *testing.T) {
	var ips ipResolver
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.9:5555"
	assert.Equal(t, "10.0.0.9", ips.clientIP(req))

	req.Header.Set("X-Real-IP", "198.51.100.2")
	req.Header.Set("X-Forwarded-For", "203.0.113.1")
	assert.Equal(t, "10.0.0.9", ips.clientIP(req))
}

func TestClientIP_TrustedProxy(t *testing.T) {
	trusted, err := ParseTrustedProxies([]string{"10.0.0.0/8", "192.168.1.1"})
	require.NoError(t, err)
	ips := ipResolver{trusted: trusted}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.9:5555"
	assert.Equal(t, "10.0.0.9", ips.clientIP(req))

	req.Header.Set("X-Real-IP", "198.51.100.2")
	assert.Equal(t, "198.51.100.2", ips.clientIP(req))

	// A spoofed leading hop does not hide the address the proxy saw.
	req.Header.Set("X-Forwarded-For", "1.2.3.4, 203.0.113.1, 192.168.1.1")
	assert.Equal(t, "203.0.113.1", ips.clientIP(req))

	req.Header.Set("X-Forwarded-For", "10.1.1.1, 10.2.2.2")
	assert.Equal(t, "10.1.1.1", ips.clientIP(req))
}

func TestParseTrustedProxies(t *testing.T) {
	prefixes, err := ParseTrustedProxies([]string{" 10.0.0.0/8 ", "::1", "192.168.1.7/24"})
	require.NoError(t, err)
	require.Len(t, prefixes, 3)
	assert.Equal(t, "192.168.1.0/24", prefixes[2].String())
	assert.Equal(t, 128, prefixes[1].Bits())

	_, err = ParseTrustedProxies([]string{"not-an-ip"})
	require.Error(t, err)
	_, err = ParseTrustedProxies([]string{"10.0.0.0/99"})
	require.Error(t, err)
}
