package realtime

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/andikarw/photo-market/models"
)

// Event types untuk feed dashboard admin
const (
	EventPurchasePending  = "purchase_pending"
	EventPurchasePaid     = "purchase_paid"
	EventPurchaseFailed   = "purchase_failed"
	EventPurchaseExpired  = "purchase_expired"
	EventProofUploaded    = "proof_uploaded"
	EventPhotoSoldChanged = "photo_sold_changed"
)

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Hub menampung koneksi dashboard admin yang memantau pembelian masuk.
type Hub struct {
	clients map[*websocket.Conn]string // conn -> role
	mutex   sync.Mutex
}

var hub = Hub{
	clients: make(map[*websocket.Conn]string),
}

func RegisterClient(conn *websocket.Conn, role string) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()
	hub.clients[conn] = role
}

func UnregisterClient(conn *websocket.Conn) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()
	delete(hub.clients, conn)
	conn.Close()
}

// BroadcastPurchaseUpdate memilih event dari status purchase lalu menyiarkan.
func BroadcastPurchaseUpdate(purchase models.Purchase) {
	event := EventPurchasePending
	switch purchase.PaymentStatus {
	case "paid":
		event = EventPurchasePaid
	case "failed":
		event = EventPurchaseFailed
	case "expired":
		event = EventPurchaseExpired
	}
	broadcast(Message{Event: event, Data: purchase})
}

// BroadcastProofUploaded memberi tahu admin ada bukti transfer baru.
func BroadcastProofUploaded(purchase models.Purchase) {
	broadcast(Message{Event: EventProofUploaded, Data: purchase})
}

// BroadcastPhotoSoldChanged menyiarkan perubahan flag sold sebuah foto.
func BroadcastPhotoSoldChanged(photo models.Photo) {
	broadcast(Message{Event: EventPhotoSoldChanged, Data: photo})
}

func BroadcastMessage(msg Message) {
	broadcast(msg)
}

func broadcast(msg Message) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()

	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Error marshaling message: %v", err)
		return
	}

	for conn := range hub.clients {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Printf("Error sending message to client: %v", err)
		}
	}
}
