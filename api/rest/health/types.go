package health

type Response struct {
	Status   string `json:"status"`
	Service  string `json:"service"`
	Version  string `json:"version,omitempty"`
	Sessions int    `json:"activeSessions"`
	Clients  int    `json:"connectedClients"`
}

type PingResponse struct {
	Message string `json:"message"`
}

type SessionCounter interface {
	SessionCount() int
}

type ClientCounter interface {
	ClientCount() int
}
