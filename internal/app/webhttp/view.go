package webhttp

import (
	"html/template"
	"log/slog"

	"github.com/sir_venger/fillmeter/internal/i18n"
	"github.com/sir_venger/fillmeter/internal/logging"
	"github.com/sir_venger/fillmeter/internal/models"
	"github.com/sir_venger/fillmeter/internal/usecase/fillsvc"
	"github.com/sir_venger/fillmeter/pkg/calcclient"
	"github.com/sir_venger/fillmeter/pkg/calcproto"
)

// refreshSeconds - период перезагрузки страницы, пока идёт расчёт.
const refreshSeconds = 1

type pageView struct {
	Lang           string
	Title          string
	LogoAlt        string
	Langs          []langLink
	Form           formView
	Submitting     bool
	RefreshSeconds int
	Error          string
	Result         *resultView
}

type langLink struct {
	Code   string
	Label  string
	Active bool
}

type formView struct {
	VolumeField       string
	ImageField        string
	VolumeLabel       string
	VolumePlaceholder string
	Volume            string
	ImageLabel        string
	Uploaded          string
	Preview           template.URL
	PreviewAlt        string
	Submit            string
	Submitting        string
	Reset             string
}

type resultView struct {
	Title         string
	FillLabel     string
	Percent       string
	VolumeLabel   string
	Volume        string
	Volume3DLabel string
	Volume3D      string
	ShowImage     bool
	ImageLabel    string
	Image         template.URL
	ImageAlt      string
	ImageFallback string
	ImageFailed   bool
}

// buildPage собирает модель страницы для состояния формы.
func (s *Server) buildPage(loc i18n.Localizer, st models.UiState, logger *slog.Logger) pageView {
	v := pageView{
		Lang:    loc.Tag.String(),
		Title:   loc.T("page.title"),
		LogoAlt: loc.T("page.logo.alt"),
		Form: formView{
			VolumeField:       calcproto.FieldVolume,
			ImageField:        calcproto.FieldImage,
			VolumeLabel:       loc.T("form.volume.label", s.Cfg.VolumeUnit),
			VolumePlaceholder: loc.T("form.volume.placeholder"),
			ImageLabel:        loc.T("form.image.label"),
			Submit:            loc.T("form.submit"),
			Submitting:        loc.T("form.submitting"),
			Reset:             loc.T("form.reset"),
		},
	}

	for _, tag := range s.Bundle.Tags() {
		code := tag.String()
		v.Langs = append(v.Langs, langLink{Code: code, Label: loc.T("lang." + code), Active: tag == loc.Tag})
	}

	if sub := st.Submission; sub != nil {
		v.Form.Volume = sub.VolumeText
		if sub.ImageName != "" {
			v.Form.Uploaded = loc.T("form.uploaded", sub.ImageName, calcclient.HumanBytes(sub.ImageSize))
		}
		if sub.Preview != "" {
			// Миниатюра проходит ту же проверку, что и визуализация сервиса.
			if img, err := fillsvc.ParseRenderedImage(sub.Preview); err == nil {
				v.Form.Preview = template.URL(img.DataURL())
				v.Form.PreviewAlt = loc.T("form.preview.alt")
			}
		}
	}

	switch st.Phase {
	case models.PhaseSubmitting:
		v.Submitting = true
		v.RefreshSeconds = refreshSeconds
	case models.PhaseFailure:
		if st.Failure != nil {
			v.Error = loc.Failure(st.Failure.Cause, s.Cfg.MaxUploadBytes)
		}
	case models.PhaseSuccess:
		if st.Result != nil {
			v.Result = buildResult(loc, *st.Result, s.Cfg.VolumeUnit, logger)
		}
	}
	return v
}

// buildResult форматирует результат расчёта; битая визуализация заменяется текстом.
func buildResult(loc i18n.Localizer, res models.CalculationResult, unit string, logger *slog.Logger) *resultView {
	v := &resultView{
		Title:       loc.T("result.title"),
		FillLabel:   loc.T("result.fill.label"),
		Percent:     loc.Percent(res.FillPercentage),
		VolumeLabel: loc.T("result.volume.label"),
		Volume:      loc.Volume(res.FilledVolume, unit),
	}
	if res.Volume3D != nil {
		v.Volume3DLabel = loc.T("result.volume3d.label")
		v.Volume3D = loc.Volume(*res.Volume3D, unit)
	}
	if !res.HasImage() {
		return v
	}

	v.ShowImage = true
	v.ImageLabel = loc.T("result.image.label")
	v.ImageAlt = loc.T("result.image.alt")
	v.ImageFallback = loc.T("result.image.unavailable")

	img, err := fillsvc.ParseRenderedImage(res.RenderedImage)
	if err != nil {
		logging.LogError(logger, "rendered image rejected", err)
		v.ImageFailed = true
		return v
	}
	// Байты проверены декодером, URL собран заново.
	v.Image = template.URL(img.DataURL())
	return v
}
