package handler

import (
    "errors"
    "log"
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/ticket-reservation/internal/queue"
    "github.com/iliyamo/ticket-reservation/internal/repository"
    "github.com/iliyamo/ticket-reservation/internal/service"
)

// OrderHandler exposes the order lifecycle operations and the order
// read surface.  All methods require the identity middleware to have
// resolved a user_code; the lifecycle operations delegate to the order
// engine, which runs each of them as one atomic transaction.
type OrderHandler struct {
    Engine *service.OrderEngine  // reservation state machine
    Orders *repository.OrderRepo // order reads
}

// NewOrderHandler constructs an OrderHandler with the provided
// dependencies.  Both must be non-nil.
func NewOrderHandler(engine *service.OrderEngine, orders *repository.OrderRepo) *OrderHandler {
    if engine == nil || orders == nil {
        panic("nil dependency passed to NewOrderHandler")
    }
    return &OrderHandler{Engine: engine, Orders: orders}
}

// OrderNow handles POST /v1/orders.  The request body must contain a
// "ticket_line_ids" array.  On success the created draft order is
// returned with 201; when any requested line is not available the whole
// reservation is rejected with 409 and the offending line id.
func (h *OrderHandler) OrderNow(c echo.Context) error {
    userCode, err := getUserCode(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var body struct {
        TicketLineIDs []uint64 `json:"ticket_line_ids"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if len(body.TicketLineIDs) == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "ticket_line_ids is required"})
    }
    order, err := h.Engine.OrderNow(c.Request().Context(), body.TicketLineIDs, userCode)
    if err != nil {
        return lifecycleError(c, err)
    }
    return c.JSON(http.StatusCreated, echo.Map{"order": order})
}

// ConfirmOrder handles POST /v1/orders/:id/confirm.  It finalizes a
// draft order into a sale and publishes an order.confirmed event after
// the transaction commits.  The event is built from the data the engine
// returns, so no replica read can race the commit; publish failures are
// logged and do not fail the request.
func (h *OrderHandler) ConfirmOrder(c echo.Context) error {
    userCode, err := getUserCode(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || orderID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
    }
    order, lineIDs, err := h.Engine.ConfirmOrder(c.Request().Context(), orderID, userCode)
    if err != nil {
        return lifecycleError(c, err)
    }
    if perr := queue.PublishOrderConfirmed(c.Request().Context(), queue.OrderConfirmedEvent{
        OrderID:     order.ID,
        OrderName:   order.Name,
        UserCode:    order.UserCode,
        LineIDs:     lineIDs,
        ConfirmedAt: time.Now().UTC().Format(time.RFC3339),
    }); perr != nil {
        log.Printf("order %d: publish confirmed event: %v", order.ID, perr)
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "order": order})
}

// CancelOrder handles POST /v1/orders/:id/cancel.  Draft and successful
// orders release their lines back to the available pool; varified and
// already-cancelled orders are rejected with 409.
func (h *OrderHandler) CancelOrder(c echo.Context) error {
    userCode, err := getUserCode(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || orderID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
    }
    order, err := h.Engine.CancelOrder(c.Request().Context(), orderID, userCode)
    if err != nil {
        return lifecycleError(c, err)
    }
    if perr := queue.PublishOrderCancelled(c.Request().Context(), queue.OrderCancelledEvent{
        OrderID:     order.ID,
        OrderName:   order.Name,
        UserCode:    order.UserCode,
        CancelledAt: time.Now().UTC().Format(time.RFC3339),
    }); perr != nil {
        log.Printf("order %d: publish cancelled event: %v", order.ID, perr)
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "order": order})
}

// MyOrders handles GET /v1/my-orders.  It returns all orders of the
// calling user, newest first.
func (h *OrderHandler) MyOrders(c echo.Context) error {
    userCode, err := getUserCode(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    orders, err := h.Orders.ListByUser(c.Request().Context(), userCode)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load orders"})
    }
    return c.JSON(http.StatusOK, echo.Map{"items": orders})
}

// GetOrder handles GET /v1/orders/:id.  It returns the order together
// with its order lines.  Orders belonging to a different user answer
// 403.
func (h *OrderHandler) GetOrder(c echo.Context) error {
    userCode, err := getUserCode(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || orderID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
    }
    order, err := h.Orders.GetByID(c.Request().Context(), orderID)
    if err != nil {
        if errors.Is(err, repository.ErrOrderNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch order"})
    }
    if order.UserCode != userCode {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    }
    lines, err := h.Orders.Lines(c.Request().Context(), orderID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch order lines"})
    }
    return c.JSON(http.StatusOK, echo.Map{"order": order, "lines": lines})
}

// QueryOrders handles POST /v1/orders/query.  The filter is constrained
// to the calling user's orders: a user_code condition is forced into
// the domain so one customer cannot enumerate another's orders.
func (h *OrderHandler) QueryOrders(c echo.Context) error {
    userCode, err := getUserCode(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    f, err := bindFilter(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }
    f.Domain = append(f.Domain, repository.Cond{Field: "user_code", Op: repository.OpEq, Value: userCode})
    orders, err := h.Orders.Query(c.Request().Context(), f)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to query orders"})
    }
    return c.JSON(http.StatusOK, echo.Map{"items": orders})
}

// lifecycleError translates order engine failures into HTTP responses.
// Validation failures surface verbatim; the transaction has already
// been rolled back, so inventory state is exactly as it was before the
// call.
func lifecycleError(c echo.Context, err error) error {
    var notAvailable *repository.LineNotAvailableError
    var notReserved *repository.LineNotReservedError
    switch {
    case errors.As(err, &notAvailable):
        return c.JSON(http.StatusConflict, echo.Map{
            "error":          "ticket line not available",
            "ticket_line_id": notAvailable.LineID,
        })
    case errors.As(err, &notReserved):
        return c.JSON(http.StatusConflict, echo.Map{
            "error":          "ticket line not reserved",
            "ticket_line_id": notReserved.LineID,
        })
    case errors.Is(err, repository.ErrOrderAlreadyCancelled):
        return c.JSON(http.StatusConflict, echo.Map{"error": "order already cancelled"})
    case errors.Is(err, repository.ErrOrderAlreadyConfirmed):
        return c.JSON(http.StatusConflict, echo.Map{"error": "order already confirmed"})
    case errors.Is(err, repository.ErrOrderAlreadyVerified):
        return c.JSON(http.StatusConflict, echo.Map{"error": "order already verified"})
    case errors.Is(err, repository.ErrForbidden):
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    case errors.Is(err, repository.ErrOrderNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
    case errors.Is(err, repository.ErrLineNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket line not found"})
    case errors.Is(err, repository.ErrTicketNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket not found"})
    }
    return c.JSON(http.StatusInternalServerError, echo.Map{"error": "operation failed"})
}
