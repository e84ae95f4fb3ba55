package api

import (
	"bytes"
	"fmt"
	"net/http"

	"chatrelay/middleware"
	"chatrelay/models"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHistory 导出聊天记录为 Excel
// @Summary 导出聊天记录
// @Description 导出当前用户最近的聊天记录（最多 1000 条）为 xlsx 文件，按时间倒序。
// @Tags 聊天
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Success 200 {file} file "Excel 文件"
// @Failure 401 {object} ErrorResponse "未授权"
// @Failure 500 {object} ErrorResponse "服务器错误"
// @Router /api/chat-history/export [get]
func (h *ChatHandler) ExportHistory(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	list, err := h.chats.ListRecent(c.Request.Context(), userID, ExportLimit)
	if err != nil {
		h.log.Error("list chat history for export", zap.String("user_id", userID), zap.Error(err))
		InternalError(c, h.cfg.SafeErrorMessage(err, "Failed to load chat history"))
		return
	}

	buf, err := buildHistoryWorkbook(list)
	if err != nil {
		h.log.Error("build workbook", zap.Error(err))
		InternalError(c, "Failed to generate Excel file")
		return
	}

	filename := fmt.Sprintf("chat_history_%s.xlsx", h.now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// buildHistoryWorkbook 生成单表工作簿：表头 + 每条记录一行
func buildHistoryWorkbook(list []models.ChatRecord) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Chat History"
	f.SetSheetName("Sheet1", sheetName)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 12, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4F81BD"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, err
	}
	wrapStyle, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Vertical: "top", WrapText: true},
	})
	if err != nil {
		return nil, err
	}

	f.SetColWidth(sheetName, "A", "A", 22)
	f.SetColWidth(sheetName, "B", "B", 50)
	f.SetColWidth(sheetName, "C", "C", 80)

	headers := []string{"Timestamp", "Message", "Response"}
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for i, rec := range list {
		row := i + 2
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), rec.Timestamp.UTC().Format("2006-01-02 15:04:05"))
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), rec.UserMessage)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), rec.AIResponse)
		f.SetCellStyle(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("C%d", row), wrapStyle)
	}

	return f.WriteToBuffer()
}
