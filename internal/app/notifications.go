package app

import (
	"fmt"
	"strings"

	"hiretrack/internal/domain/application"
	"hiretrack/internal/domain/notification"
)

const (
	subjectSubmitted = "Application Submitted"
	bodySubmitted    = "Your application for the job has been successfully submitted."
	subjectReceived  = "New Application Received"
	bodyReceived     = "A new candidate has applied for your job posting."
)

func submissionNotifications(candidateEmail string, recruiterEmails []string) []notification.Request {
	out := make([]notification.Request, 0, len(recruiterEmails)+1)
	if strings.TrimSpace(candidateEmail) != "" {
		out = append(out, notification.Request{Recipient: candidateEmail, Subject: subjectSubmitted, Body: bodySubmitted})
	}
	for _, email := range recruiterEmails {
		if strings.TrimSpace(email) == "" {
			continue
		}
		out = append(out, notification.Request{Recipient: email, Subject: subjectReceived, Body: bodyReceived})
	}
	return out
}

func stageChangeNotification(candidateEmail, jobTitle string, from, to application.Stage) notification.Request {
	return notification.Request{
		Recipient: candidateEmail,
		Subject:   "Application Stage Updated: " + to.String(),
		Body:      fmt.Sprintf("Hello!\n\nYour application for job %q moved from %q to %q.", jobTitle, from.String(), to.String()),
	}
}
