package downloads

import "github.com/labstack/echo/v4"

type Handler interface {
	CreateJob() echo.HandlerFunc
	GetJob() echo.HandlerFunc
	CancelJob() echo.HandlerFunc
	ListHistory() echo.HandlerFunc
	GetMediaInfo() echo.HandlerFunc
}
