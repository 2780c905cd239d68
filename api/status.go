package api

import (
	"net/http"
	"time"
)

type statusResponse struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Version string `json:"version"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		Status:  "ok",
		Uptime:  time.Since(s.StartTime).Truncate(time.Second).String(),
		Version: s.Version,
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(indexHTML))
}

const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>SiteQR</title>
<style>
  * { margin: 0; padding: 0; box-sizing: border-box; }
  body {
    font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
    background: #0a0a0a;
    color: #e0e0e0;
    display: flex;
    justify-content: center;
    align-items: center;
    min-height: 100vh;
  }
  .card {
    background: #1a1a1a;
    border: 1px solid #333;
    border-radius: 16px;
    padding: 48px;
    text-align: center;
    max-width: 460px;
    width: 100%;
  }
  h1 { font-size: 20px; font-weight: 600; margin-bottom: 8px; }
  .subtitle { color: #888; font-size: 14px; margin-bottom: 32px; }
  a.button {
    display: inline-block;
    background: #2563eb;
    color: #fff;
    text-decoration: none;
    border-radius: 8px;
    padding: 12px 24px;
    font-size: 14px;
    font-weight: 600;
  }
  #status { font-size: 14px; color: #888; margin-top: 24px; }
  .signed-in { color: #4ade80 !important; }
</style>
</head>
<body>
<div class="card">
  <h1>SiteQR</h1>
  <p class="subtitle">Site registry, Google Drive file proxy and QR label generation</p>
  <a class="button" href="/auth/google">Sign in with Google</a>
  <div id="status"></div>
</div>
<script>
(function() {
  var statusEl = document.getElementById('status');
  fetch('/auth/status', { credentials: 'include' })
    .then(function(r) { return r.json(); })
    .then(function(data) {
      if (data.authenticated) {
        statusEl.className = 'signed-in';
        statusEl.textContent = 'Signed in as ' + (data.user.email || data.user.name);
      } else {
        statusEl.textContent = 'Not signed in';
      }
    })
    .catch(function() {
      statusEl.textContent = 'Status unavailable';
    });
})();
</script>
</body>
</html>`
