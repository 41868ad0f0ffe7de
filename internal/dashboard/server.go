package dashboard

import (
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"finnews/internal/ports"
)

// headlineLimit caps the dashboard view at the most recent rows.
const headlineLimit = 100

const pageTemplate = `<!DOCTYPE html>
<html>
<head>
<title>FinNews Dashboard</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; width: 100%; }
th, td { text-align: left; padding: 6px 10px; border-bottom: 1px solid #ddd; }
.positive { color: #2e7d32; }
.negative { color: #c62828; }
.neutral { color: #757575; }
</style>
</head>
<body>
<h1>FinNews Market Sentiment</h1>
<h2>Mood: {{.Stats.Positive}} positive / {{.Stats.Negative}} negative / {{.Stats.Neutral}} neutral</h2>
<table>
<tr><th>Date</th><th>Source</th><th>Headline</th><th>Sentiment</th></tr>
{{range .Headlines}}
<tr>
<td>{{.PublishedAt}}</td>
<td>{{.Source}}</td>
<td><a href="{{.URL}}">{{.Title}}</a></td>
<td class="{{.Sentiment}}">{{.Sentiment}}</td>
</tr>
{{end}}
</table>
</body>
</html>`

// Stats summarizes the sentiment distribution for the dashboard header and
// the JSON API.
type Stats struct {
	Total    int64 `json:"total"`
	Positive int64 `json:"positive"`
	Negative int64 `json:"negative"`
	Neutral  int64 `json:"neutral"`
}

// Server renders the read-only dashboard over the shared store. It never
// writes; the pipeline process owns all mutations.
type Server struct {
	reader ports.HeadlineReader
}

// NewServer wires the store read path.
func NewServer(reader ports.HeadlineReader) *Server {
	return &Server{reader: reader}
}

// Router builds the gin engine with HTML, JSON API and metrics routes.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.SetHTMLTemplate(template.Must(template.New("dashboard").Parse(pageTemplate)))

	r.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/dashboard")
	})
	r.GET("/dashboard", s.dashboard)
	r.GET("/api/headlines", s.headlines)
	r.GET("/api/stats", s.stats)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func (s *Server) dashboard(c *gin.Context) {
	headlines, err := s.reader.LatestHeadlines(c.Request.Context(), headlineLimit)
	if err != nil {
		c.String(http.StatusInternalServerError, "database error: %v", err)
		return
	}

	stats, err := s.loadStats(c)
	if err != nil {
		c.String(http.StatusInternalServerError, "database error: %v", err)
		return
	}

	c.HTML(http.StatusOK, "dashboard", gin.H{
		"Headlines": headlines,
		"Stats":     stats,
	})
}

func (s *Server) headlines(c *gin.Context) {
	headlines, err := s.reader.LatestHeadlines(c.Request.Context(), headlineLimit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
		return
	}

	c.JSON(http.StatusOK, headlines)
}

func (s *Server) stats(c *gin.Context) {
	stats, err := s.loadStats(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (s *Server) loadStats(c *gin.Context) (Stats, error) {
	counts, err := s.reader.SentimentCounts(c.Request.Context())
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{
		Positive: counts["positive"],
		Negative: counts["negative"],
		Neutral:  counts["neutral"],
	}
	for _, n := range counts {
		stats.Total += n
	}

	return stats, nil
}
