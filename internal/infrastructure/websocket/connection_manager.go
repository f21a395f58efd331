package websocket

import (
	"encoding/json"
	"sync"

	"auction-engine/internal/domain"
	"auction-engine/pkg/logger"
)

type ConnectionManager struct {
	connections map[string]map[domain.WebSocketConnection]struct{} // auctionID -> connections
	userConns   map[string][]domain.WebSocketConnection            // userID -> connections
	mutex       sync.RWMutex
	log         logger.Logger
}

func NewConnectionManager(log logger.Logger) *ConnectionManager {
	return &ConnectionManager{
		connections: make(map[string]map[domain.WebSocketConnection]struct{}),
		userConns:   make(map[string][]domain.WebSocketConnection),
		log:         log,
	}
}

func (cm *ConnectionManager) RegisterConnection(userID, auctionID string, conn domain.WebSocketConnection) error {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	// Register by auction
	if cm.connections[auctionID] == nil {
		cm.connections[auctionID] = make(map[domain.WebSocketConnection]struct{})
	}
	cm.connections[auctionID][conn] = struct{}{}

	// Register by user
	cm.userConns[userID] = append(cm.userConns[userID], conn)

	cm.log.Info("Connection registered", "user_id", userID, "auction_id", auctionID)
	return nil
}

func (cm *ConnectionManager) UnregisterConnection(userID, auctionID string, conn domain.WebSocketConnection) error {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	cm.removeLocked(userID, auctionID, conn)

	cm.log.Info("Connection unregistered", "user_id", userID, "auction_id", auctionID)
	return nil
}

func (cm *ConnectionManager) removeLocked(userID, auctionID string, conn domain.WebSocketConnection) {
	if auctionConns, exists := cm.connections[auctionID]; exists {
		delete(auctionConns, conn)
		if len(auctionConns) == 0 {
			delete(cm.connections, auctionID)
		}
	}

	if userConnections, exists := cm.userConns[userID]; exists {
		var newConns []domain.WebSocketConnection
		for _, existingConn := range userConnections {
			if existingConn != conn {
				newConns = append(newConns, existingConn)
			}
		}

		if len(newConns) == 0 {
			delete(cm.userConns, userID)
		} else {
			cm.userConns[userID] = newConns
		}
	}
}

func (cm *ConnectionManager) CloseAndUnregisterConnections(auctionID string) error {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	for conn := range cm.connections[auctionID] {
		if err := conn.Close(); err != nil {
			cm.log.Error("Failed to close connection", "user_id", conn.UserID(),
				"auction_id", auctionID, "error", err)
		}
		cm.removeLocked(conn.UserID(), auctionID, conn)
	}

	cm.log.Info("Connections closed for auction", "auction_id", auctionID)
	return nil
}

func (cm *ConnectionManager) GetConnectionsForAuction(auctionID string) []domain.WebSocketConnection {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	var connections []domain.WebSocketConnection
	for conn := range cm.connections[auctionID] {
		connections = append(connections, conn)
	}

	return connections
}

func (cm *ConnectionManager) GetConnectionsForUser(userID string) []domain.WebSocketConnection {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	return append([]domain.WebSocketConnection(nil), cm.userConns[userID]...)
}

func (cm *ConnectionManager) allConnections() []domain.WebSocketConnection {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	var connections []domain.WebSocketConnection
	for _, auctionConns := range cm.connections {
		for conn := range auctionConns {
			connections = append(connections, conn)
		}
	}
	return connections
}

func (cm *ConnectionManager) BroadcastToAuction(auctionID string, message interface{}) error {
	return cm.sendAll(cm.GetConnectionsForAuction(auctionID), message)
}

func (cm *ConnectionManager) BroadcastToAll(message interface{}) error {
	return cm.sendAll(cm.allConnections(), message)
}

// NotifyUserInAuction reaches only the user's connections watching auctionID.
func (cm *ConnectionManager) NotifyUserInAuction(auctionID, userID string, message interface{}) error {
	var targets []domain.WebSocketConnection
	for _, conn := range cm.GetConnectionsForUser(userID) {
		if conn.AuctionID() == auctionID {
			targets = append(targets, conn)
		}
	}
	return cm.sendAll(targets, message)
}

// sendAll encodes once and hands the bytes to every connection. A failing
// connection does not stop delivery to the rest.
func (cm *ConnectionManager) sendAll(connections []domain.WebSocketConnection, message interface{}) error {
	if len(connections) == 0 {
		return nil
	}

	messageBytes, err := json.Marshal(message)
	if err != nil {
		return err
	}

	for _, conn := range connections {
		if err := conn.Send(messageBytes); err != nil {
			cm.log.Error("Failed to send message", "user_id", conn.UserID(),
				"auction_id", conn.AuctionID(), "error", err)
		}
	}

	cm.log.Debug("Message delivered", "connections", len(connections))
	return nil
}
