package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KlotzJesse/solar-potential/pkg/client"
)

func newAPIStub(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/buildings", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(client.ListResult{
			Buildings: []*client.Building{
				{ID: "48.100000,11.500000@1700000000000", Nickname: "Building 12", PanelsCount: 50, IsActive: true},
			},
			Total: 1,
		})
	})
	mux.HandleFunc("POST /api/v1/buildings", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(client.AddResult{
			Building: &client.Building{ID: "48.100000,11.500000@1700000000000", Nickname: "Building 12"},
		})
	})
	mux.HandleFunc("GET /api/v1/buildings/summary", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(client.Summary{TotalPanels: 50, TotalYearlyEnergyAcKwh: 17000, DcToAcDerate: 0.85, PanelCapacityRatio: 1})
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func runCommand(t *testing.T, server *httptest.Server, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(append(args, "--server", server.URL))
	err := cmd.Execute()
	return out.String(), err
}

func TestBuildingsListCommand(t *testing.T) {
	server := newAPIStub(t)

	out, err := runCommand(t, server, "buildings", "list", "-o", "json")
	require.NoError(t, err)
	assert.Contains(t, out, "Building 12")

	out, err = runCommand(t, server, "buildings", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "NICKNAME")
	assert.Contains(t, out, "Building 12")
}

func TestBuildingsAddCommand(t *testing.T) {
	server := newAPIStub(t)

	out, err := runCommand(t, server, "buildings", "add", "--lat", "48.1", "--lng", "11.5", "-o", "json")
	require.NoError(t, err)
	assert.Contains(t, out, "Building 12")
}

func TestBuildingsAddRequiresLocationOrAddress(t *testing.T) {
	server := newAPIStub(t)

	_, err := runCommand(t, server, "buildings", "add")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--lat/--lng or --address")
}

func TestSummaryCommand(t *testing.T) {
	server := newAPIStub(t)

	out, err := runCommand(t, server, "summary")
	require.NoError(t, err)
	assert.Contains(t, out, "Total panels")
	assert.Contains(t, out, "50")
}

func TestVersionCommand(t *testing.T) {
	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetArgs([]string{"version"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "solarctl")
}

func TestClearRequiresConfirmation(t *testing.T) {
	server := newAPIStub(t)

	_, err := runCommand(t, server, "buildings", "clear")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--yes")
}
