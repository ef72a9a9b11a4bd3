package wizard

import (
	"context"
	"strings"
)

// SubmitEmail asks for a reset code. The API answers the same way whether
// or not the account exists, so the wizard always moves on.
func (w *Wizard) SubmitEmail(ctx context.Context, email string) error {
	done, err := w.begin()
	if err != nil {
		return err
	}
	defer done()

	if w.Step() != StepResetCollectingEmail {
		return ErrWrongStep
	}

	email = strings.TrimSpace(email)
	if msg := validateEmail(email); msg != "" {
		w.setErrors(Errors{Fields: map[string]string{"email": msg}})
		return ErrInvalidInput
	}

	msg, err := w.api.ForgotPassword(ctx, email)
	if err != nil {
		w.setErrors(errorsFrom(err, "email", "Failed to send reset code. Please try again."))
		return err
	}

	return w.awaitCode(StepResetAwaitingCode, email, msg)
}

func (w *Wizard) verifyReset(ctx context.Context, email, otp string) error {
	token, err := w.api.VerifyResetCode(ctx, email, otp)
	if err != nil {
		w.rejectCode(err)
		return err
	}

	w.timer.halt()

	w.mu.Lock()
	w.resetToken = token
	w.step = StepResetSettingPassword
	w.errs = Errors{}
	w.notice = "Code verified successfully!"
	w.mu.Unlock()

	return nil
}

// SubmitNewPassword sets the new password with the stored reset token.
func (w *Wizard) SubmitNewPassword(ctx context.Context, password, confirm string) error {
	done, err := w.begin()
	if err != nil {
		return err
	}
	defer done()

	w.mu.Lock()
	step, token := w.step, w.resetToken
	w.mu.Unlock()
	if step != StepResetSettingPassword {
		return ErrWrongStep
	}

	fields := map[string]string{}
	if msg := validateNewPassword(password); msg != "" {
		fields["newPassword"] = msg
	}
	if msg := validateConfirmation(password, confirm); msg != "" {
		fields["confirmNewPassword"] = msg
	}
	if len(fields) > 0 {
		w.setErrors(Errors{Fields: fields})
		return ErrInvalidInput
	}

	msg, err := w.api.ResetPassword(ctx, token, password)
	if err != nil {
		w.setErrors(errorsFrom(err, "newPassword", "Failed to reset password. Please try again."))
		return err
	}

	w.mu.Lock()
	w.resetToken = ""
	w.step = StepCompleted
	w.errs = Errors{}
	w.notice = msg
	w.mu.Unlock()

	return nil
}

// validateNewPassword needs 8 characters with a lowercase letter, an
// uppercase letter and a digit.
func validateNewPassword(p string) string {
	if len(p) < 8 {
		return "Password must be at least 8 characters long"
	}
	if lower, upper, digit, _ := charClasses(p); !lower || !upper || !digit {
		return "Password must contain uppercase, lowercase, and number"
	}
	return ""
}
