package main

// Request/response DTOs of the root handlers. Service requests live with
// their services (logbook.CreateSeasonRequest, ...).

type registerReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userView struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type tokenResp struct {
	Token string   `json:"token"`
	User  userView `json:"user"`
}

type fcmTokenReq struct {
	FCMToken string `json:"fcmToken"`
}

type trackUsageReq struct {
	MaterialName string `json:"materialName"`
}

type recordReq struct {
	LogID string `json:"logId"`
}

type barcodeView struct {
	Name     string `json:"name"`
	Supplier string `json:"supplier,omitempty"`
	Barcode  string `json:"barcode"`
	Unit     string `json:"unit,omitempty"`
}
