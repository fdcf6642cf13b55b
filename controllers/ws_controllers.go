package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/andikarw/photo-market/realtime"
	"github.com/andikarw/photo-market/utils"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin sudah disaring CORS middleware di depan.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// AdminPurchaseFeed meng-upgrade koneksi dashboard admin ke websocket dan
// mendaftarkannya ke hub. Koneksi hanya menerima broadcast; pesan masuk
// diabaikan dan hanya dipakai untuk mendeteksi koneksi putus.
func AdminPurchaseFeed(c *gin.Context) {
	role, _ := c.Get("role")
	if role != "admin" {
		c.AbortWithStatus(http.StatusForbidden)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.ErrorLogger.Printf("Websocket upgrade failed: %v", err)
		return
	}

	realtime.RegisterClient(conn, "admin")
	utils.InfoLogger.Printf("Admin dashboard connected from %s", c.ClientIP())

	go func() {
		defer realtime.UnregisterClient(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
