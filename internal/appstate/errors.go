package appstate

import (
	"net/http"

	"localfelo_backend/internal/common"
)

var ErrInvalidClientID = common.NewAPIError(http.StatusBadRequest, "INVALID_CLIENT_ID",
	"The X-Client-ID header must be 8 to 64 letters, digits, dashes or underscores.")
