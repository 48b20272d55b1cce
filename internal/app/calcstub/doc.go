// Package calcstub реализует заглушку сервиса расчёта заполненности - HTTP-интерфейс,
// совместимый с внешним API, для локальной разработки и интеграционных тестов.
// Основные эндпоинты:
//   - POST /calculate - принимает containerVolume и containerImage, отвечает настроенным
//     процентом заполнения, вычисленным заполненным объёмом и, по желанию, PNG-шкалой в data URL.
//   - GET / - сообщение о том, что API работает.
//   - GET /health - {"ok": true} для health-check'ов.
package calcstub
