package world

import "errors"

// Ошибки карты и генерации
var (
	// ErrInvalidDimensions - неположительная ширина, высота или число уровней
	ErrInvalidDimensions = errors.New("недопустимые размеры карты")
	// ErrSlotPlacementExhausted - исчерпан лимит попыток размещения слотов одного игрока.
	// Обрабатывается внутри GenerateMap полной перегенерацией карты.
	ErrSlotPlacementExhausted = errors.New("исчерпаны попытки размещения слотов игрока")
	// ErrGenerationFailed - исчерпан лимит перегенераций карты
	ErrGenerationFailed = errors.New("не удалось сгенерировать карту")
	// ErrNilRandom - не передан источник случайных чисел
	ErrNilRandom = errors.New("источник случайных чисел не задан")
)

// Ошибки пространственного индекса. Это штатные исходы операций,
// вызывающий код ветвится по ним через errors.Is.
var (
	ErrInvalidUnit     = errors.New("недопустимый ID юнита")
	ErrInvalidPosition = errors.New("недопустимая позиция или радиус юнита")
	ErrDuplicateUnit   = errors.New("юнит уже зарегистрирован")
	ErrUnitNotFound    = errors.New("юнит не найден")
	ErrOverlapRejected = errors.New("позиция пересекается с другим юнитом")
)
