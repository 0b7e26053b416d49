package gameapi

import "fmt"

func gamesEndpoint() string {
	return "/api/games"
}

func gameEndpoint(roomCode string) string {
	return fmt.Sprintf("/api/games/%s", roomCode)
}

func joinEndpoint(roomCode string) string {
	return fmt.Sprintf("/api/games/%s/join", roomCode)
}

func playersEndpoint(roomCode string) string {
	return fmt.Sprintf("/api/games/%s/players", roomCode)
}

func playerEndpoint(roomCode, playerID string) string {
	return fmt.Sprintf("/api/games/%s/players/%s", roomCode, playerID)
}

func transactionsEndpoint(roomCode string) string {
	return fmt.Sprintf("/api/games/%s/transactions", roomCode)
}

func auditEndpoint(roomCode, transactionID string) string {
	return fmt.Sprintf("/api/games/%s/transactions/%s/audit", roomCode, transactionID)
}

func reconnectEndpoint(roomCode string) string {
	return fmt.Sprintf("/api/games/%s/reconnect", roomCode)
}

func auditorEndpoint(roomCode, playerID string) string {
	return fmt.Sprintf("/api/games/%s/players/%s/auditor", roomCode, playerID)
}
