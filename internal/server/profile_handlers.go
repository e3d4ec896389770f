package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/skillcred/skillcred/internal/apiclient"
	"github.com/skillcred/skillcred/internal/toast"
)

const (
	msgProfileSaved  = "Profile saved!"
	maxPictureBytes  = 5 << 20
	pictureFieldName = "profile_picture"
)

// profileValues refills the form after a failed submission
type profileValues struct {
	FirstName   string
	LastName    string
	Bio         string
	LinkedInURL string
	College     string
	City        string
	Country     string
}

func valuesOf(form apiclient.ProfileForm) profileValues {
	return profileValues{
		FirstName:   form.FirstName,
		LastName:    form.LastName,
		Bio:         form.Bio,
		LinkedInURL: form.LinkedInURL,
		College:     form.College,
		City:        form.City,
		Country:     form.Country,
	}
}

func (s *Server) completeProfilePage(c *gin.Context) {
	s.render(c, http.StatusOK, "complete-profile.html", page{
		Title:  "Complete your profile",
		UserID: c.Param("userId"),
	})
}

func (s *Server) completeProfile(c *gin.Context) {
	userID := c.Param("userId")

	var form apiclient.ProfileForm
	if err := c.ShouldBind(&form); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to bind profile form")
		s.render(c, http.StatusBadRequest, "complete-profile.html", page{
			Title:  "Complete your profile",
			UserID: userID,
			Toast:  toast.Error(msgGenericError),
		})
		return
	}
	form.Trim()

	if err := apiclient.ValidateProfile(s.validator, form); err != nil {
		s.render(c, http.StatusBadRequest, "complete-profile.html", page{
			Title:   "Complete your profile",
			UserID:  userID,
			Profile: valuesOf(form),
			Toast:   toast.Error(apiclient.ValidationMessage(err)),
		})
		return
	}

	if header, err := c.FormFile(pictureFieldName); err == nil {
		if header.Size > maxPictureBytes {
			s.render(c, http.StatusRequestEntityTooLarge, "complete-profile.html", page{
				Title:   "Complete your profile",
				UserID:  userID,
				Profile: valuesOf(form),
				Toast:   toast.Error("Profile picture must be at most 5 MB"),
			})
			return
		}

		file, err := header.Open()
		if err != nil {
			s.logger.Error().Err(err).Msg("Failed to open uploaded picture")
			s.render(c, http.StatusBadRequest, "complete-profile.html", page{
				Title:   "Complete your profile",
				UserID:  userID,
				Profile: valuesOf(form),
				Toast:   toast.Error(msgGenericError),
			})
			return
		}
		defer file.Close()

		form.Picture = &apiclient.FileUpload{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Content:     file,
		}
	} else if !errors.Is(err, http.ErrMissingFile) {
		s.logger.Warn().Err(err).Msg("Failed to read uploaded picture")
	}

	client := s.client.WithTokenSource(sessionFrom(c))
	resp, err := client.CompleteProfile(c.Request.Context(), form)
	if err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("Profile submission failed")
		s.render(c, errorStatus(err), "complete-profile.html", page{
			Title:   "Complete your profile",
			UserID:  userID,
			Profile: valuesOf(form),
			Toast:   toast.Error(apiclient.UserMessage(err, msgGenericError)),
		})
		return
	}

	message := msgProfileSaved
	if m, ok := resp["message"].(string); ok && m != "" {
		message = m
	}

	s.logger.Info().Str("user_id", userID).Msg("Profile submitted")
	s.render(c, http.StatusOK, "complete-profile.html", page{
		Title:   "Complete your profile",
		UserID:  userID,
		Profile: valuesOf(form),
		Toast:   toast.Success(message),
	})
}
