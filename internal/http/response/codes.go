package response

const (
	CodeOK                 = 200
	CodeNoContent          = 204
	CodeBadRequest         = 400
	CodeForbidden          = 403
	CodeNotFound           = 404
	CodeMethodNotAllowed   = 405
	CodePayloadTooLarge    = 413
	CodeTooManyRequests    = 429
	CodeInternal           = 500
	CodeBadGateway         = 502
	CodeServiceUnavailable = 503
)
