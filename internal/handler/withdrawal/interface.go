package withdrawal

import "github.com/gin-gonic/gin"

type IHandler interface {
	Submit(c *gin.Context)
	Cancel(c *gin.Context)
	Status(c *gin.Context)
	RequestQueueStatus(c *gin.Context)
	TxQueueStatus(c *gin.Context)
}
