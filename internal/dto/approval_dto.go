package dto

type CreateApprovalRequest struct {
	Subject          string   `json:"subject"`
	Description      string   `json:"description"`
	Type             string   `json:"type"`
	ApproverEmail    string   `json:"approver_email"`
	Supplier         string   `json:"supplier"`
	EstimatedPrice   *float64 `json:"estimated_price"`
	TotalAmountToPay *float64 `json:"total_amount_to_pay"`
}

type DecisionRequest struct {
	Decision string `json:"decision"`
	Note     string `json:"note"`
}
