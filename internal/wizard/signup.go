package wizard

import (
	"context"
	"strings"
)

// SubmitProfile validates the form and asks for a signup code. On success
// the profile is kept for the verify request and the countdown starts.
func (w *Wizard) SubmitProfile(ctx context.Context, p Profile) error {
	done, err := w.begin()
	if err != nil {
		return err
	}
	defer done()

	if w.Step() != StepCollectingProfile {
		return ErrWrongStep
	}

	if fields := validateProfile(p); len(fields) > 0 {
		w.setErrors(Errors{Fields: fields})
		return ErrInvalidInput
	}

	email := strings.TrimSpace(p.Email)
	msg, err := w.api.SendSignupCode(ctx, email)
	if err != nil {
		w.setErrors(errorsFrom(err, "email", "Failed to send verification code"))
		return err
	}

	if err := w.awaitCode(StepAwaitingCode, email, msg); err != nil {
		return err
	}

	w.mu.Lock()
	w.pending = Profile{Name: strings.TrimSpace(p.Name), Email: email, Password: p.Password}
	w.mu.Unlock()

	return nil
}

func validateProfile(p Profile) map[string]string {
	fields := map[string]string{}
	for name, msg := range map[string]string{
		"name":            validateName(p.Name),
		"email":           validateEmail(p.Email),
		"password":        validatePassword(p.Password),
		"confirmPassword": validateConfirmation(p.Password, p.ConfirmPassword),
	} {
		if msg != "" {
			fields[name] = msg
		}
	}

	return fields
}

func (w *Wizard) verifySignup(ctx context.Context, email, otp string, p Profile) error {
	session, err := w.api.VerifySignup(ctx, email, otp, p.Name, p.Password)
	if err != nil {
		w.rejectCode(err)
		return err
	}

	w.timer.halt()

	w.mu.Lock()
	w.session = session
	w.pending = Profile{}
	w.step = StepCompleted
	w.errs = Errors{}
	w.notice = "Account created successfully! Welcome to ProductiveFire!"
	w.mu.Unlock()

	return nil
}

func (w *Wizard) rejectCode(err error) {
	w.mu.Lock()
	w.code.Clear()
	w.errs = errorsFrom(err, "otp", "Invalid or expired verification code")
	w.mu.Unlock()
}
