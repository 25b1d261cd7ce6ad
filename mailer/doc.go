// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package mailer renders and delivers the login and invitation emails.

ResendMailer sends through the Resend API. LogMailer only logs the message
and is selected when RESEND_API_KEY is empty. Recorder keeps messages in
memory for tests.

Bodies are rendered with html/template from the embedded templates
directory, so user-provided values such as names are escaped.
*/
package mailer
