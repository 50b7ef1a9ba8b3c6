package email

import "context"

// SendWelcomeEmail greets a freshly registered user.
func (c *Client) SendWelcomeEmail(ctx context.Context, to, displayName string) error {
	return c.SendEmail(ctx, to, "Welcome to the Calculator API!", TemplateWelcome, map[string]string{
		"DisplayName": displayName,
	})
}

// SendAccountDeletedEmail confirms that an account and its history are gone.
func (c *Client) SendAccountDeletedEmail(ctx context.Context, to, displayName, removed string) error {
	return c.SendEmail(ctx, to, "Your Calculator API account was deleted", TemplateAccountDeleted, map[string]string{
		"DisplayName":         displayName,
		"CalculationsRemoved": removed,
	})
}
