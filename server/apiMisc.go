package server

import (
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cyclopcam/www"
	"github.com/julienschmidt/httprouter"
)

func (s *Server) httpPing(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	www.SendJSON(w, map[string]any{
		"time": time.Now().Unix(),
	})
}

func (s *Server) httpRobots(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	www.SendText(w, "User-agent: Googlebot\nAllow: /\nUser-Agent: *\nDisallow: /")
}

func (s *Server) httpNavigation(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	www.SendJSON(w, s.menu)
}

type paypalWebhookJSON struct {
	ID         string `json:"id"`
	CreateTime string `json:"create_time"`
	Summary    string `json:"summary"`
	Resource   struct {
		State  string `json:"state"`
		Amount struct {
			Mode     string `json:"mode"`
			Currency string `json:"currency"`
			Total    string `json:"total"`
		} `json:"amount"`
	} `json:"resource"`
}

// PayPal IPN receiver. We only forward a digest to the internal notification
// channel. The response is always 200, otherwise PayPal keeps retrying.
func (s *Server) httpPaypalWebhook(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	body := paypalWebhookJSON{}
	www.ReadJSON(w, r, &body, 1024*1024)
	created := int64(0)
	if t, err := time.Parse(time.RFC3339, body.CreateTime); err == nil {
		created = t.UnixMilli()
	}
	values := url.Values{}
	values.Set("id", body.ID)
	values.Set("created", strconv.FormatInt(created, 10))
	values.Set("summary", body.Summary)
	values.Set("state", body.Resource.State)
	values.Set("mode", body.Resource.Amount.Mode)
	values.Set("currency", body.Resource.Amount.Currency)
	values.Set("amount", body.Resource.Amount.Total)
	if err := s.notifier.Send(r.Context(), "paypal", values); err != nil {
		s.Log.Warnf("Failed to forward paypal notification %v: %v", body.ID, err)
	}
	www.SendOK(w)
}
