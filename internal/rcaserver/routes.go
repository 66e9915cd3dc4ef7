package rcaserver

func (s *Server) registerHandlers() {
	s.registerInvestigationHandlers()
	s.registerHealthEndpoints()
}

func (s *Server) registerInvestigationHandlers() {
	s.router.Handle("/v1/investigations", s.corsMiddleware(s.withMethod("POST", s.handleCreateInvestigation)))
}

func (s *Server) registerHealthEndpoints() {
	s.router.HandleFunc("/health", s.handleHealth)
	s.router.HandleFunc("/ready", s.handleReady)
	s.router.Handle("/metrics", s.metricsHandler)
}
