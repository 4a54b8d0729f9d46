package websocket

type ConnectParams struct {
	// code block to join right away; clients may also send joinCodeBlock later
	CodeBlockID string `form:"codeblock" binding:"max=128"`

	// optional stable client id, lets a reconnecting mentor reclaim the session
	Identity string `form:"identity" binding:"max=128"`
}
