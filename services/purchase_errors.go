package services

import "errors"

var (
	ErrPhotoNotFound               = errors.New("photo not found")
	ErrAlreadySold                 = errors.New("photo already sold")
	ErrAlreadyPurchased            = errors.New("photo already purchased by this buyer")
	ErrBelowMinimumAmount          = errors.New("amount below gateway minimum, use manual transfer")
	ErrInvalidStateTransition      = errors.New("purchase is not in a state that allows this transition")
	ErrReconciliationTargetMissing = errors.New("no purchase found for the given reference")
)

// IsGatewayConnectivity melaporkan apakah err adalah kegagalan konektivitas
// gateway yang boleh di-fallback ke pembayaran manual.
func IsGatewayConnectivity(err error) bool {
	var ge *GatewayError
	return errors.As(err, &ge) && ge.Kind == GatewayErrConnectivity
}
