package server

import (
	"net/http"
	"time"

	"github.com/cyclopcam/dbh"
	"github.com/cyclopcam/www"
	"github.com/julienschmidt/httprouter"
	"github.com/tavernkeep/tavern/server/auth"
	"github.com/tavernkeep/tavern/server/effort"
	"github.com/tavernkeep/tavern/server/model"
)

func (s *Server) httpEffortTable(w http.ResponseWriter, r *http.Request, params httprouter.Params, identity *auth.Identity) {
	server := effort.DisplayName(params.ByName("server"))
	metrics, err := s.effort.LatestByServer(r.Context(), server)
	www.Check(err)
	if len(metrics) == 0 {
		www.Panic(http.StatusNotFound, "No data found for given server")
	}
	www.SendJSON(w, effort.FormatTable(server, metrics))
}

func (s *Server) httpEffortMaterial(w http.ResponseWriter, r *http.Request, params httprouter.Params, identity *auth.Identity) {
	server := effort.DisplayName(params.ByName("server"))
	faction := effort.DisplayName(params.ByName("faction"))
	material := effort.DisplayName(params.ByName("material"))
	history, required, err := s.effort.MaterialHistory(r.Context(), server, faction, material)
	www.Check(err)
	if len(history) == 0 {
		www.Panic(http.StatusNotFound, "No data found for given material/faction/server combination")
	}
	www.SendJSON(w, effort.FormatChart(server, faction, material, history, required))
}

type snapshotJSON struct {
	Server    string `json:"server"`
	Faction   string `json:"faction"`
	Material  string `json:"material"`
	Current   int64  `json:"current"`
	Required  int64  `json:"required"`
	Timestamp int64  `json:"timestamp"` // unix milliseconds; 0 means now
}

// Ingest endpoint for the external collector. Snapshots are append-only.
func (s *Server) httpEffortAddSnapshots(w http.ResponseWriter, r *http.Request, params httprouter.Params, identity *auth.Identity) {
	req := []snapshotJSON{}
	www.ReadJSON(w, r, &req, 1024*1024)
	if len(req) == 0 {
		www.PanicBadRequestf("No snapshots in request")
	}
	now := time.Now().UTC()
	snapshots := make([]model.Snapshot, 0, len(req))
	for _, item := range req {
		if item.Server == "" || item.Faction == "" || item.Material == "" {
			www.PanicBadRequestf("server, faction and material are required")
		}
		at := now
		if item.Timestamp != 0 {
			at = time.UnixMilli(item.Timestamp)
		}
		snapshots = append(snapshots, model.Snapshot{
			Server:    item.Server,
			Faction:   item.Faction,
			Material:  item.Material,
			Current:   item.Current,
			Required:  item.Required,
			UpdatedAt: dbh.MakeIntTime(at),
		})
	}
	www.Check(s.effort.AddSnapshots(r.Context(), snapshots))
	s.Log.Infof("%v added %v war effort snapshots", identity.Login, len(snapshots))
	www.SendOK(w)
}
