package server

import (
	"net/http"

	"storyboarder/internal/gateway/handler"
	"storyboarder/internal/gateway/handler/rpc"
	"storyboarder/internal/gateway/middleware"
)

func NewMux(
	storyboardHandler *rpc.StoryboardHandler,
	streamHandler *handler.SessionStreamHandler,
	reportHandler *handler.ReportHandler,
) http.Handler {
	mux := http.NewServeMux()

	// RPC Handlers
	mux.Handle(rpc.NewStoryboardServiceHandler(storyboardHandler))

	// Stream and download
	mux.HandleFunc("/ws/sessions", streamHandler.HandleSessionWS)
	mux.HandleFunc("/report", reportHandler.HandleReport)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// Middleware
	return middleware.CORS(mux)
}
