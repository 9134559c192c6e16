package reports

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/Vortex-Hub-Tech/agendamento/app/models"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/apperrors"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/entitlements"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/logger"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/objectstore"
)

const (
	SheetSummary      = "Resumo"
	SheetAppointments = "Agendamentos"

	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Export is an uploaded XLSX report.
type Export struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
	Rows      int       `json:"rows"`
	Size      int64     `json:"size"`
}

var appointmentHeader = []interface{}{"ID", "Data", "Hora", "Cliente", "Telefone", "Serviço", "Status", "Lembrete enviado", "Criado em"}

// Export builds the monthly workbook, uploads it and returns a presigned link.
func (s *Service) Export(ctx context.Context, tenant *models.Tenant, month time.Time) (*Export, error) {
	if s.store == nil {
		return nil, apperrors.Configuration("armazenamento de arquivos não configurado")
	}

	sum, err := s.compute(ctx, tenant.ID, month)
	if err != nil {
		return nil, err
	}
	from, to := entitlements.MonthWindow(month)
	rows, err := s.appointments.ListCreatedBetween(ctx, tenant.ID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}

	body, err := BuildWorkbook(tenant, sum, rows)
	if err != nil {
		return nil, fmt.Errorf("build workbook: %w", err)
	}

	now := s.now()
	key := objectstore.ReportKey(tenant.ID, now, s.newID())
	put, err := s.store.Put(ctx, key, ContentTypeXLSX, body)
	if err != nil {
		return nil, err
	}
	url, err := s.store.PresignGet(ctx, key, 0)
	if err != nil {
		return nil, err
	}

	logger.L().Info("analytics export uploaded",
		zap.Uint("tenant_id", tenant.ID),
		zap.String("key", key),
		zap.Int("rows", len(rows)),
	)
	return &Export{
		Key:       key,
		URL:       url,
		ExpiresAt: now.Add(objectstore.DefaultPresignTTL),
		Rows:      len(rows),
		Size:      put.Size,
	}, nil
}

// BuildWorkbook renders the summary sheet and one row per appointment.
func BuildWorkbook(tenant *models.Tenant, sum *Summary, appointments []models.Appointment) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetSummary); err != nil {
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	summaryRows := [][]interface{}{
		{"Empresa", tenant.Name},
		{"Mês", sum.Month},
		{"Total de agendamentos", sum.TotalAppointments},
		{"Pendentes", sum.AppointmentsByStatus[models.AppointmentStatusPending]},
		{"Realizados", sum.AppointmentsByStatus[models.AppointmentStatusDone]},
		{"Cancelados", sum.AppointmentsByStatus[models.AppointmentStatusCancelled]},
		{"Taxa de conclusão", sum.CompletionRate},
		{"Taxa de cancelamento", sum.CancellationRate},
		{"SMS enviados", sum.SMSSent},
	}
	for i, row := range summaryRows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(SheetSummary, cell, &row); err != nil {
			return nil, err
		}
	}
	if err := f.SetCellStyle(SheetSummary, "A1", fmt.Sprintf("A%d", len(summaryRows)), bold); err != nil {
		return nil, err
	}
	percent, err := f.NewStyle(&excelize.Style{NumFmt: 10})
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(SheetSummary, "B7", "B8", percent); err != nil {
		return nil, err
	}
	_ = f.SetColWidth(SheetSummary, "A", "A", 26)

	if _, err := f.NewSheet(SheetAppointments); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(SheetAppointments, "A1", &appointmentHeader); err != nil {
		return nil, err
	}
	lastCol, _ := excelize.ColumnNumberToName(len(appointmentHeader))
	if err := f.SetCellStyle(SheetAppointments, "A1", lastCol+"1", bold); err != nil {
		return nil, err
	}
	for i, a := range appointments {
		serviceName := ""
		if a.Service != nil {
			serviceName = a.Service.Name
		}
		row := []interface{}{
			a.ID,
			a.AppointmentDate,
			a.AppointmentTime,
			a.ClientName,
			a.ClientPhone,
			serviceName,
			a.Status,
			yesNo(a.ReminderSent),
			a.CreatedAt.Format("2006-01-02 15:04"),
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(SheetAppointments, cell, &row); err != nil {
			return nil, err
		}
	}
	_ = f.SetColWidth(SheetAppointments, "D", "F", 22)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func yesNo(v bool) string {
	if v {
		return "sim"
	}
	return "não"
}

func newExportID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
